package inspect

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpacahq/eventstore/cmd/create"
	"github.com/alpacahq/eventstore/executor"
	"github.com/alpacahq/eventstore/paths"
	"github.com/alpacahq/eventstore/utils"
	"github.com/alpacahq/eventstore/utils/test"
)

func TestInspect(t *testing.T) {
	t.Parallel()
	f, _ := test.MakeDataFile(t, 256)
	w, err := executor.NewWriter(f, false)
	require.Nil(t, err)

	payload, err := executor.EncodePayload(&executor.Payload{Action: "created", Data: "a"})
	require.Nil(t, err)
	events := []paths.Event{{ObjectID: 4, Timestamp: 11, Payload: payload}}
	events = append(events, test.RoundRobinEvents(12, 2, 8)...)
	require.Nil(t, w.Write(events))

	var out bytes.Buffer
	require.Nil(t, Inspect(&out, f, false))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, f.BlockCount()+1)
	assert.True(t, strings.HasPrefix(lines[0], "block      0  objects 1.."))
	assert.Contains(t, lines[len(lines)-1], "blocks (0 spanned) of 256B")

	out.Reset()
	require.Nil(t, Inspect(&out, f, true))
	assert.Contains(t, out.String(), "  object 4: 3 events\n")
	assert.Contains(t, out.String(), "    11 created a\n")
	assert.Contains(t, out.String(), "    1000 <8B raw>\n")
}

func TestInspectCommandUsesCreatedBlockSize(t *testing.T) {
	root := filepath.Join(t.TempDir(), "data")
	cfg, err := utils.LoadConfig("", root, "3000")
	require.Nil(t, err)
	require.Nil(t, create.Create(cfg))

	instance, err := executor.NewInstanceSetup(cfg)
	require.Nil(t, err)
	require.Nil(t, instance.Writer.Write(test.RoundRobinEvents(40, 6, 8)))
	blocks := instance.DataFile.BlockCount()
	require.Greater(t, blocks, 1)
	require.Nil(t, instance.Close())

	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetArgs([]string{"--dir", root})
	require.Nil(t, Cmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, blocks+1)
	assert.Contains(t, lines[len(lines)-1], "blocks (0 spanned) of 3000, ")
}
