package storm_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	storm "github.com/storm-repo/storm-go"
)

func TestModelError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := storm.NewModelError("Owner", "pets", "reference target has no primary key")
		assert.Equal(t, "storm: model error on type Owner field pets: reference target has no primary key", err.Error())
	})

	t.Run("MissingPrimaryKey", func(t *testing.T) {
		err := storm.NewMissingPrimaryKeyError("AuditLog")
		assert.True(t, errors.Is(err, storm.ErrMissingPrimaryKey))
		assert.True(t, storm.IsModelError(err))

		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, storm.IsModelError(wrapped))
		assert.False(t, storm.IsModelError(errors.New("other error")))
		assert.False(t, storm.IsModelError(nil))
	})
}

func TestPathError(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		err := storm.NewPathNotFoundError("Owner", "adress.city")
		assert.Equal(t, `storm: path "adress.city" not found on Owner`, err.Error())
		assert.True(t, errors.Is(err, storm.ErrPathNotFound))
		assert.True(t, storm.IsPathError(err))
	})

	t.Run("Ambiguous", func(t *testing.T) {
		err := storm.NewAmbiguousPathError("Visit", "name", []string{"pet.name", "vet.name"})
		assert.Equal(t, `storm: path "name" is ambiguous on Visit (candidates: pet.name, vet.name)`, err.Error())
		assert.True(t, errors.Is(err, storm.ErrAmbiguousPath))
		assert.True(t, storm.IsPathError(fmt.Errorf("wrapper: %w", err)))
	})
}

func TestPredicateError(t *testing.T) {
	err := storm.NewPredicateError("BETWEEN", "age", 1, "")
	assert.Equal(t, `storm: predicate error for operator BETWEEN on "age": got 1 values`, err.Error())
	assert.True(t, storm.IsPredicateError(err))
	assert.False(t, storm.IsPredicateError(nil))
}

func TestQueryError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := storm.NewQueryError("Owner", "select", `duplicate join alias "o"`)
		assert.Equal(t, `storm: query error on Owner (select): duplicate join alias "o"`, err.Error())
		assert.True(t, storm.IsQueryError(err))
	})

	t.Run("MissingWhereClause", func(t *testing.T) {
		err := storm.NewMissingWhereClauseError("Owner", "delete")
		assert.True(t, errors.Is(err, storm.ErrMissingWhereClause))
		assert.True(t, storm.IsQueryError(fmt.Errorf("wrapper: %w", err)))
	})
}

func TestDialectError(t *testing.T) {
	err := storm.NewDialectError("sqlite", "lock mode FOR SHARE", "")
	assert.Equal(t, "storm: dialect sqlite cannot render lock mode FOR SHARE", err.Error())
	assert.True(t, storm.IsDialectError(err))
	assert.False(t, storm.IsDialectError(errors.New("other error")))
}

func TestConstraintError(t *testing.T) {
	cause := errors.New("UNIQUE constraint failed: owners.email")
	err := storm.NewConstraintError("unique constraint violated", cause)
	assert.Equal(t, "storm: constraint failed: unique constraint violated", err.Error())
	assert.True(t, storm.IsConstraintError(err))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, storm.IsConstraintError(nil))
}

func TestCacheKeyString(t *testing.T) {
	k := storm.CacheKey{Dialect: "postgres", Entity: "Owner", Operation: "select", Fingerprint: "abc123"}
	assert.Equal(t, "postgres:Owner:select:abc123", k.String())
}
