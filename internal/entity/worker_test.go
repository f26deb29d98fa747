package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkerNormalizes(t *testing.T) {
	w, err := NewWorker("  Asha Patel ", []string{"Plumber", " PLUMBER", "Electrician"}, "+91 99999 11111", "ASHA@Example.COM", 19.07, 72.88)

	require.NoError(t, err)
	assert.NotEmpty(t, w.ID)
	assert.Equal(t, "Asha Patel", w.Name)
	assert.Equal(t, []string{"plumber", "electrician"}, w.Skills)
	assert.Equal(t, "asha@example.com", w.Email)
	assert.True(t, w.Active)
}

func TestWorkerValidate(t *testing.T) {
	_, err := NewWorker("", []string{"plumber"}, "+91 99999 11111", "", 19, 72)
	assert.EqualError(t, err, "name is required")

	_, err = NewWorker("Asha", nil, "+91 99999 11111", "", 19, 72)
	assert.EqualError(t, err, "at least one skill is required")

	_, err = NewWorker("Asha", []string{"plumber"}, "", "", 19, 72)
	assert.EqualError(t, err, "phone or email is required")
}

func TestWorkerHasSkill(t *testing.T) {
	w := Worker{Skills: []string{"plumber", "electrician"}}

	assert.True(t, w.HasSkill("plumber"))
	assert.True(t, w.HasSkill("  Electrician "))
	assert.False(t, w.HasSkill("carpenter"))
}
