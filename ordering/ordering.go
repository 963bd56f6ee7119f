// Package ordering maintains the display order of sibling rows: photos of an
// album, covers of a category and albums of a category. Order values are not
// unique; ties are broken by the listing queries.
package ordering

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/camden-git/portfoliobackend/database"
)

// Column is the column backing every "order" field.
const Column = "display_order"

// Scope selects the siblings sharing one parent.
type Scope struct {
	Table        string
	ParentColumn string
	ParentID     uint
}

func PhotosOf(albumID uint) Scope {
	return Scope{Table: "photos", ParentColumn: "album_id", ParentID: albumID}
}

func CoversOf(categoryID uint) Scope {
	return Scope{Table: "category_covers", ParentColumn: "category_id", ParentID: categoryID}
}

func AlbumsOf(categoryID uint) Scope {
	return Scope{Table: "albums", ParentColumn: "category_id", ParentID: categoryID}
}

func (s Scope) String() string {
	return fmt.Sprintf("%s(%s=%d)", s.Table, s.ParentColumn, s.ParentID)
}

// Entry is one requested position change.
type Entry struct {
	ID    uint `json:"id"`
	Order int  `json:"order"`
}

// NextOrder returns the order for a single appended item: the highest sibling
// order plus one, or 1 when there are no siblings.
func NextOrder(tx *gorm.DB, s Scope) (int, error) {
	var row struct{ MaxOrder *int }
	query := database.Builder.
		Select(fmt.Sprintf("MAX(%s) AS max_order", Column)).
		From(s.Table).
		Where(sq.Eq{s.ParentColumn: s.ParentID})
	if err := database.Scan(tx, query, &row); err != nil {
		return 0, fmt.Errorf("next order for %s: %w", s, err)
	}
	if row.MaxOrder == nil {
		return 1, nil
	}
	return *row.MaxOrder + 1, nil
}

// BatchStart returns the order of the first item of an appended batch: the
// current sibling count. Item i of the batch gets start+i.
func BatchStart(tx *gorm.DB, s Scope) (int, error) {
	var row struct{ Total int }
	query := database.Builder.
		Select("COUNT(*) AS total").
		From(s.Table).
		Where(sq.Eq{s.ParentColumn: s.ParentID})
	if err := database.Scan(tx, query, &row); err != nil {
		return 0, fmt.Errorf("batch start for %s: %w", s, err)
	}
	return row.Total, nil
}

// Reorder applies every entry as a point update scoped by (id, parent) in a
// single transaction. Ids that are unknown or belong to another parent match
// no row and are skipped. It returns the number of rows updated; on any
// failure nothing is applied.
func Reorder(db *gorm.DB, s Scope, entries []Entry, log *zap.Logger) (int64, error) {
	var updated int64
	err := db.Transaction(func(tx *gorm.DB) error {
		updated = 0
		for _, e := range entries {
			stmt := database.Builder.
				Update(s.Table).
				Set(Column, e.Order).
				Where(sq.Eq{"id": e.ID, s.ParentColumn: s.ParentID})
			n, err := database.Exec(tx, stmt)
			if err != nil {
				return fmt.Errorf("reorder %s id %d: %w", s, e.ID, err)
			}
			updated += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if skipped := int64(len(entries)) - updated; skipped > 0 && log != nil {
		log.Warn("reorder skipped ids outside scope",
			zap.String("scope", s.String()), zap.Int64("skipped", skipped), zap.Int("requested", len(entries)))
	}
	return updated, nil
}

// Renumber rewrites the siblings to the gap-free sequence 0..n-1, keeping the
// current (order, id) sequence. It returns the number of rows whose order
// changed.
func Renumber(db *gorm.DB, s Scope) (int64, error) {
	var changed int64
	err := db.Transaction(func(tx *gorm.DB) error {
		changed = 0
		var rows []struct {
			ID           uint
			DisplayOrder int
		}
		query := database.Builder.
			Select("id", Column).
			From(s.Table).
			Where(sq.Eq{s.ParentColumn: s.ParentID}).
			OrderBy(Column+" ASC", "id ASC")
		if err := database.Scan(tx, query, &rows); err != nil {
			return fmt.Errorf("renumber %s: %w", s, err)
		}

		for i, r := range rows {
			if r.DisplayOrder == i {
				continue
			}
			stmt := database.Builder.Update(s.Table).Set(Column, i).Where(sq.Eq{"id": r.ID})
			if _, err := database.Exec(tx, stmt); err != nil {
				return fmt.Errorf("renumber %s id %d: %w", s, r.ID, err)
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}
