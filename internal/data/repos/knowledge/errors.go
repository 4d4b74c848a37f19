package knowledge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/mindforge-ai/mindforge-backend/internal/platform/kberr"
)

const pgUniqueViolation = "23505"

// translate maps driver-level failures onto the store's error kinds at the
// repo boundary, so the layers above never match on SQLSTATEs.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return kberr.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		if strings.Contains(pgErr.ConstraintName, "file_sha1") {
			return fmt.Errorf("%w: %s", kberr.ErrDuplicateContent, pgErr.ConstraintName)
		}
		return fmt.Errorf("%w: %s", kberr.ErrConflict, pgErr.ConstraintName)
	}
	return err
}
