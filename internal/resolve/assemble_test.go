package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/jobboard-cli/internal/model"
)

func TestIsConcernStatus(t *testing.T) {
	assert.True(t, IsConcernStatus("Liquidation"))
	assert.True(t, IsConcernStatus("DISSOLVED"))
	assert.True(t, IsConcernStatus("Voluntary Arrangement"))
	assert.True(t, IsConcernStatus("insolvency proceedings"))
	assert.False(t, IsConcernStatus("Active"))
	assert.False(t, IsConcernStatus("In Liquidation"))
	assert.False(t, IsConcernStatus(""))
}

func TestAssemble_Coverage(t *testing.T) {
	sources := hub("Acme Bio", "Beta", "Nothing Alike")
	targets := registry("Acme Bio Ltd", "Gamma Holdings", "Beta Limited", "Delta")

	res, err := NewMatcher().Run(context.Background(), sources, targets)
	require.NoError(t, err)
	master := res.Assemble()

	sum := res.Summary()
	assert.Equal(t, 2, sum.Accepted)
	assert.Equal(t, 2, sum.UnclaimedTargets)
	assert.Len(t, master, len(sources)+sum.UnclaimedTargets)

	// Every registry entry appears exactly once.
	seen := make(map[string]int)
	for _, m := range master {
		if m.Registry != nil {
			seen[m.Registry.RegistrationID]++
		}
	}
	for _, tgt := range targets {
		assert.Equal(t, 1, seen[tgt.RegistrationID], tgt.Name)
	}
}

func TestAssemble_Ordering(t *testing.T) {
	sources := hub("Beta", "Acme Bio")
	targets := registry("Zeta", "Acme Bio Ltd", "Omega")

	res, err := NewMatcher().Run(context.Background(), sources, targets)
	require.NoError(t, err)
	master := res.Assemble()

	names := make([]string, len(master))
	for i, m := range master {
		names[i] = m.Name
	}
	assert.Equal(t, []string{"Beta", "Acme Bio", "Zeta", "Omega"}, names)
}

func TestAssemble_MatchedHubCarriesRegistryFields(t *testing.T) {
	sources := hub("F-Star")
	targets := registry("F Star Therapeutics Limited")
	targets[0].Status = "Liquidation"
	targets[0].ClassificationCode = "72110"

	res, err := NewMatcher().Run(context.Background(), sources, targets)
	require.NoError(t, err)
	master := res.Assemble()
	require.Len(t, master, 1)

	m := master[0]
	assert.Equal(t, "F-Star", m.Name)
	assert.Equal(t, model.ProvenanceHub, m.Source)
	require.NotNil(t, m.Registry)
	assert.Equal(t, "00000001", m.Registry.RegistrationID)
	assert.Equal(t, "72110", m.Registry.ClassificationCode)
	assert.Equal(t, "CB1 1AA", m.Postcode())
	assert.True(t, m.RegistryValidated)
	assert.True(t, m.HasIdentifyingURL)
	assert.True(t, m.ConcernFlag)
	require.NotNil(t, m.MatchScore)
	assert.Equal(t, 0.667, *m.MatchScore)
	assert.Equal(t, "F Star Therapeutics Limited", m.MatchSourceName)
}

func TestAssemble_RegistryOnlyRecord(t *testing.T) {
	res, err := NewMatcher().Run(context.Background(), nil, registry("Solo Ltd"))
	require.NoError(t, err)
	master := res.Assemble()
	require.Len(t, master, 1)

	m := master[0]
	assert.Equal(t, model.ProvenanceRegistry, m.Source)
	assert.True(t, m.RegistryValidated)
	assert.False(t, m.HasIdentifyingURL)
	assert.False(t, m.ConcernFlag)
	assert.Nil(t, m.MatchScore)
	assert.Empty(t, m.MatchSourceName)
}

func TestAssemble_UnmatchedHubHasNoRegistry(t *testing.T) {
	sources := hub("Acme")
	sources[0].URL = "  "
	res, err := NewMatcher().Run(context.Background(), sources, registry("Zeta"))
	require.NoError(t, err)
	master := res.Assemble()
	require.Len(t, master, 2)

	assert.Nil(t, master[0].Registry)
	assert.False(t, master[0].RegistryValidated)
	assert.False(t, master[0].HasIdentifyingURL)
	assert.Nil(t, master[0].MatchScore)
	assert.Equal(t, model.ProvenanceRegistry, master[1].Source)
}

func TestAssemble_DoesNotAliasInputs(t *testing.T) {
	sources := hub("Acme")
	sources[0].Metadata = map[string]string{"hub_name": "Hub A"}
	targets := registry("Acme Ltd")

	res, err := NewMatcher().Run(context.Background(), sources, targets)
	require.NoError(t, err)
	master := res.Assemble()

	sources[0].Metadata["hub_name"] = "changed"
	targets[0].Address["postcode"] = "changed"
	assert.Equal(t, "Hub A", master[0].Metadata["hub_name"])
	assert.Equal(t, "CB1 1AA", master[0].Postcode())
}

func TestAssemble_AmbiguousClaimsAllAbsorbed(t *testing.T) {
	sources := hub("Bio Corp A", "Bio A Ltd")
	targets := registry("Bio Corp A Holdings")

	res, err := NewMatcher().Run(context.Background(), sources, targets)
	require.NoError(t, err)
	master := res.Assemble()

	require.Len(t, master, 2)
	for _, m := range master {
		assert.Equal(t, model.ProvenanceHub, m.Source)
		require.NotNil(t, m.Registry)
		assert.Equal(t, "00000001", m.Registry.RegistrationID)
	}
}
