package sqlstore

import (
	"database/sql"
	"time"

	"github.com/JonMunkholm/softjail/internal/core"
)

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullDate(p core.Prisoner) sql.NullString {
	if p.ReleaseDate == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: core.FormatDate(*p.ReleaseDate), Valid: true}
}

func nullMoney(m core.Money) sql.NullString {
	if !m.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: core.MoneyText(m), Valid: true}
}

func parseStoredDate(s string) (time.Time, error) {
	return time.Parse(core.ExportDateLayout, s)
}
