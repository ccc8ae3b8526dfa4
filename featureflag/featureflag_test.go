package featureflag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeatureFlag(t *testing.T) {
	f := New([]string{"FEATURE1"})

	t.Run("run if enabled", func(t *testing.T) {
		var runFeature1 bool
		f.IfSet("FEATURE1", func() {
			runFeature1 = true
		})
		require.True(t, runFeature1)

		var runFeature2 bool
		f.IfSet("FEATURE2", func() {
			runFeature2 = true
		})
		require.False(t, runFeature2)
	})

	t.Run("run if disabled", func(t *testing.T) {
		var runFeature1 bool
		f.IfNotSet("FEATURE1", func() {
			runFeature1 = true
		})
		require.False(t, runFeature1)

		var runFeature2 bool
		f.IfNotSet("FEATURE2", func() {
			runFeature2 = true
		})
		require.True(t, runFeature2)
	})
}

func TestNew(t *testing.T) {
	t.Run("flags are normalized", func(t *testing.T) {
		f := New([]string{" octree_single_child_query ", "", "Disable_Session_State"})
		require.Len(t, f, 2)
		require.True(t, f.IsSet(FlagOctreeSingleChildQuery))
		require.True(t, f.IsSet(FlagDisableSessionState))
	})

	t.Run("no flags", func(t *testing.T) {
		f := New(nil)
		require.Empty(t, f)
		require.False(t, f.IsSet(FlagOctreeSingleChildQuery))
	})
}

func TestFeatureFlagStrings(t *testing.T) {
	f := New([]string{"b", "a", "c"})
	require.Equal(t, []string{"A", "B", "C"}, f.Strings())
}
