package history

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const containerData = `Container Type,Container Description,Artists
Album,Blue Train (Expanded Edition),John Coltrane
Playlist,Night Drive Mix,
Album,First Love,Hikaru Utada
Album,Watch The Throne,"JAY-Z, Kanye West"
`

func TestLoadContainers(t *testing.T) {
	ix, err := LoadContainers(strings.NewReader(containerData))
	require.NoError(t, err)
	// The playlist row has no artists and is dropped.
	require.Equal(t, 3, ix.Len())
}

func TestContainerLookupSubstringMatch(t *testing.T) {
	ix, err := LoadContainers(strings.NewReader(containerData))
	require.NoError(t, err)

	// "Blue Train" matches the expanded edition container by substring.
	require.Equal(t, []string{"John Coltrane"}, ix.Lookup("Blue Train"))
	require.Equal(t, []string{"JAY-Z", "Kanye West"}, ix.Lookup("Watch The Throne"))
	require.Nil(t, ix.Lookup("Giant Steps"))
	require.Nil(t, ix.Lookup(""))
}

func TestContainerLookupNilIndex(t *testing.T) {
	var ix *ContainerIndex
	require.Nil(t, ix.Lookup("Blue Train"))
	require.Zero(t, ix.Len())
}

func TestLoadContainersFileMissing(t *testing.T) {
	ix, err := LoadContainersFile(filepath.Join(t.TempDir(), "nope.csv"))
	require.NoError(t, err)
	require.Zero(t, ix.Len())
}
