// Package testutils provides helper functions for testing
package testutils

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// FlagTestCase describes the expected definition of a cobra flag.
type FlagTestCase struct {
	Name       string
	Short      string
	Default    string
	Persistent bool
	// FileExt lists the completion extensions of a filename flag.
	FileExt []string
}

// CheckFlag asserts that cmd defines the flag described by tc.
func CheckFlag(t *testing.T, cmd *cobra.Command, tc FlagTestCase) {
	t.Helper()

	var flag *pflag.Flag
	if tc.Persistent {
		flag = cmd.PersistentFlags().Lookup(tc.Name)
	} else {
		flag = cmd.LocalNonPersistentFlags().Lookup(tc.Name)
	}
	require.NotNil(t, flag, "Flag %q should be defined", tc.Name)

	assert.Equal(t, tc.Short, flag.Shorthand, "Shorthand of %q does not match", tc.Name)
	assert.Equal(t, tc.Default, flag.DefValue, "Default of %q does not match", tc.Name)

	if tc.FileExt != nil {
		assert.Equal(t, tc.FileExt, flag.Annotations[cobra.BashCompFilenameExt], "Completion of %q does not match", tc.Name)
	} else {
		assert.Nil(t, flag.Annotations[cobra.BashCompFilenameExt], "%q should not complete filenames", tc.Name)
	}
}
