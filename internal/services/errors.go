package services

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/inkwelldata/inkwell/pkg/errors"
)

var (
	// ErrAssetNotFound indicates the target asset does not exist or is deleted.
	ErrAssetNotFound = apperrors.New("ASSET_NOT_FOUND", "Asset not found", http.StatusNotFound)
	// ErrShareNotFound indicates no grant exists for the identity on the asset.
	ErrShareNotFound = apperrors.New("SHARE_NOT_FOUND", "Share not found", http.StatusNotFound)
	// ErrContainmentNotAllowed rejects placements with no declared containment edge.
	ErrContainmentNotAllowed = apperrors.New("CONTAINMENT_NOT_ALLOWED", "Asset type cannot be placed in this container", http.StatusBadRequest)
)

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique") ||
		strings.Contains(lower, "duplicate") ||
		strings.Contains(lower, "constraint")
}
