package memrepo_test

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/clinicalmcp/internal/adapter/outbound/memrepo"
	"github.com/i2y/clinicalmcp/internal/domain"
	"github.com/i2y/clinicalmcp/internal/refdata"
	"github.com/i2y/clinicalmcp/internal/usecase"
)

var _ usecase.ReferenceRepository = (*memrepo.InMemoryReferenceRepository)(nil)

func newTestRepo(t *testing.T, tables refdata.Tables) *memrepo.InMemoryReferenceRepository {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return memrepo.NewInMemoryReferenceRepository(tables, logger)
}

func TestInMemoryReferenceRepository_FindTdmProfile(t *testing.T) {
	repo := newTestRepo(t, refdata.Default())

	tests := []struct {
		name   string
		drug   string
		wantOK bool
	}{
		{"exact", "vancomycin", true},
		{"mixed case with spaces", "  VancoMYCIN ", true},
		{"multi word", "Valproic Acid", true},
		{"unknown", "paracetamol", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := repo.FindTdmProfile(tt.drug)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestInMemoryReferenceRepository_ReturnsCopies(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	repo := newTestRepo(t, refdata.Default())

	p, ok := repo.FindTdmProfile("vancomycin")
	require.True(ok)
	p.RiskFactors[0] = "changed"

	again, _ := repo.FindTdmProfile("vancomycin")
	assert.Equal("renal impairment", again.RiskFactors[0])

	rules := repo.ClinicalRules()
	rules[0].Name = "changed"
	assert.NotEqual("changed", repo.ClinicalRules()[0].Name)
}

func TestInMemoryReferenceRepository_TdmProfilesKeepsLoadOrder(t *testing.T) {
	tables := refdata.Tables{TdmProfiles: []domain.TdmProfile{
		{Drug: "b"}, {Drug: "a"}, {Drug: "B"}, {Drug: " "},
	}}
	repo := newTestRepo(t, tables)

	got := repo.TdmProfiles()
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].Drug, "later duplicate replaces earlier one in place")
	assert.Equal(t, "a", got[1].Drug)
}

func TestInMemoryReferenceRepository_FindHighAlertDrug(t *testing.T) {
	repo := newTestRepo(t, refdata.Default())

	h, ok := repo.FindHighAlertDrug("Insulin glargine")
	require.True(t, ok)
	assert.Equal(t, "insulin", h.Name)

	_, ok = repo.FindHighAlertDrug("amoxicillin")
	assert.False(t, ok)

	_, ok = repo.FindHighAlertDrug("")
	assert.False(t, ok)
}

func TestInMemoryReferenceRepository_ConcurrentReads(t *testing.T) {
	repo := newTestRepo(t, refdata.Default())
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.FindTdmProfile("digoxin")
			_ = repo.Interactions()
			_ = repo.TdmProfiles()
		}()
	}
	wg.Wait()
}
