package tracker

import (
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// OpenReadOnly opens the SubmarineTracker database without touching its
// schema. The file belongs to the game plugin; we never migrate or lock it.
func OpenReadOnly(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open("file:"+path+"?mode=ro"), &gorm.Config{})
}

func OpenReadWrite(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path), &gorm.Config{})
}

// DBSource reads the full submarine set from the plugin database on every
// poll. No caching: the plugin rewrites rows whenever a voyage is sent out.
type DBSource struct {
	db *gorm.DB
}

func NewDBSource(path string) (*DBSource, error) {
	db, err := OpenReadOnly(path)
	if err != nil {
		return nil, &StorageError{Err: fmt.Errorf("open %s: %w", path, err)}
	}
	return &DBSource{db: db}, nil
}

func (s *DBSource) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type submarineRow struct {
	ID            int64
	Name          string
	ReturnTime    int64
	CharacterID   int64
	Tag           string
	CharacterName string
}

const submarineQuery = `
SELECT
    submarine.SubmarineId AS id,
    submarine.Name AS name,
    submarine.Return AS return_time,
    submarine.FreeCompanyId AS character_id,
    freecompany.FreeCompanyTag AS tag,
    freecompany.CharacterName AS character_name
FROM submarine
JOIN freecompany
ON submarine.FreeCompanyId = freecompany.FreeCompanyId
ORDER BY return_time ASC
`

func (s *DBSource) Poll() ([]Submarine, error) {
	var rows []submarineRow
	if err := s.db.Raw(submarineQuery).Scan(&rows).Error; err != nil {
		return nil, &StorageError{Err: err}
	}
	subs := make([]Submarine, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, Submarine{
			ID:            r.ID,
			Name:          r.Name,
			Return:        time.Unix(r.ReturnTime, 0).UTC(),
			CharacterID:   r.CharacterID,
			CharacterName: r.CharacterName,
			Tag:           r.Tag,
		})
	}
	return subs, nil
}

// UpdateAllReturns rewrites every submarine's return time. Maintenance
// command only; opens its own read-write handle and closes it again.
func UpdateAllReturns(path string, t time.Time) (int64, error) {
	db, err := OpenReadWrite(path)
	if err != nil {
		return 0, &StorageError{Err: fmt.Errorf("open %s: %w", path, err)}
	}
	defer func() {
		if sqlDB, derr := db.DB(); derr == nil {
			_ = sqlDB.Close()
		}
	}()
	res := db.Exec("UPDATE submarine SET Return = ?", t.Unix())
	if res.Error != nil {
		return 0, &StorageError{Err: res.Error}
	}
	return res.RowsAffected, nil
}

// ParseUpdateTime parses the operator-entered bulk update time, interpreted
// in loc. The layout matches what the game client shows.
func ParseUpdateTime(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("01/02/2006 15:04", strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date format incorrect for %q, FFXIV format expected\n\nExample: 11/14/2024 16:59", s)
	}
	return t, nil
}
