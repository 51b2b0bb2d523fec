package service

import (
	"context"
	"testing"

	"deskhub/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormCode(t *testing.T) {
	tests := map[string]string{
		"leave":        "LVF",
		"night_access": "NAF",
		"overtime":     "OTF",
		"time_off":     "TOF",
		"mc_form":      "MCF",
		"form":         "FM",
		"":             "FM",
		"LEAVE":        "FM",
	}
	for formType, want := range tests {
		assert.Equal(t, want, FormCode(formType), formType)
	}
}

func TestFileStem(t *testing.T) {
	assert.Equal(t, "lvf_bob_001", FileStem("LVF_bob_001"))
	assert.Equal(t, "naf_mary_ann_012", FileStem("NAF_Mary Ann_012"))
	assert.Equal(t, "fm_a_b_003", FileStem("FM_a/../b_003"))
}

func TestMaxSequence(t *testing.T) {
	numbers := []string{"LVF_bob_001", "lvf_BOB_007", "LVF_bob_x12", "LVF_bobby_050", "LVF_bob_", "NAF_bob_099"}
	assert.Equal(t, 7, maxSequence(numbers, "LVF_bob_"))
	assert.Equal(t, 0, maxSequence(nil, "LVF_bob_"))
}

func TestNextControlNumber(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	next, err := NextControlNumber(ctx, db, "leave", "bob")
	require.NoError(t, err)
	assert.Equal(t, "LVF_bob_001", next)

	for _, rec := range []model.FormRecord{
		{Username: "bob", FormType: "leave", ControlNumber: "LVF_bob_001", Status: model.FormSubmitted},
		{Username: "Bob", FormType: "leave", ControlNumber: "LVF_Bob_004", Status: model.FormApproved},
		{Username: "bob", FormType: "overtime", ControlNumber: "OTF_bob_009", Status: model.FormSubmitted},
		{Username: "bob", FormType: "leave", ControlNumber: "LVF_bob_legacy", Status: model.FormSubmitted},
	} {
		rec := rec
		require.NoError(t, db.Create(&rec).Error)
	}

	next, err = NextControlNumber(ctx, db, "leave", "bob")
	require.NoError(t, err)
	assert.Equal(t, "LVF_bob_005", next)

	next, err = NextControlNumber(ctx, db, "overtime", " bob ")
	require.NoError(t, err)
	assert.Equal(t, "OTF_bob_010", next)

	next, err = NextControlNumber(ctx, db, "", "bob")
	require.NoError(t, err)
	assert.Equal(t, "FM_bob_001", next)

	next, err = NextControlNumber(ctx, db, "leave", "  ")
	require.NoError(t, err)
	assert.Equal(t, "", next)
}
