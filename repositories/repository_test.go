package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unique violation from the slot index", &pgconn.PgError{Code: "23505", ConstraintName: "uniq_active_slot"}, ErrDuplicateKey},
		{"wrapped unique violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), ErrDuplicateKey},
		{"gorm duplicated key", gorm.ErrDuplicatedKey, ErrDuplicateKey},
		{"malformed uuid", &pgconn.PgError{Code: "22P02"}, ErrNotFound},
		{"record not found", gorm.ErrRecordNotFound, ErrNotFound},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, ErrReferenced},
		{"gorm foreign key violated", gorm.ErrForeignKeyViolated, ErrReferenced},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.err, "failed to write")
			assert.True(t, errors.Is(got, tt.want), got)
			assert.Contains(t, got.Error(), "failed to write")
		})
	}
}

func TestTranslateErrorPassesOtherErrorsThrough(t *testing.T) {
	assert.NoError(t, translateError(nil, "unused"))

	cause := &pgconn.PgError{Code: "57014", Message: "canceling statement due to statement timeout"}
	got := translateError(cause, "failed to list appointments")
	for _, sentinel := range []error{ErrNotFound, ErrDuplicateKey, ErrReferenced} {
		assert.False(t, errors.Is(got, sentinel))
	}
	var pgErr *pgconn.PgError
	assert.True(t, errors.As(got, &pgErr))
	assert.Equal(t, "57014", pgErr.Code)
}
