package cli

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"

	"github.com/roach88/ledger/internal/config"
	"github.com/roach88/ledger/internal/model"
)

const (
	idA = "00000000-0000-7000-8000-00000000000a"
	idB = "00000000-0000-7000-8000-00000000000b"
	idC = "00000000-0000-7000-8000-00000000000c"
	idD = "00000000-0000-7000-8000-00000000000d"
)

// testNow is inside 2024 so the default period is that year.
var testNow = time.Date(2024, time.June, 15, 10, 30, 0, 0, time.UTC)

// testEnv is an isolated config dir and data dir shared by the commands
// of one test.
type testEnv struct {
	t       *testing.T
	env     map[string]string
	dataDir string
	ids     *model.FixedGenerator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dataDir := filepath.Join(t.TempDir(), "data")
	return &testEnv{
		t:       t,
		dataDir: dataDir,
		env: map[string]string{
			"XDG_CONFIG_HOME":  t.TempDir(),
			config.EnvDataDir:  dataDir,
			config.EnvLogLevel: "disabled",
		},
		ids: model.NewFixedGenerator(
			uuid.MustParse(idA), uuid.MustParse(idB),
			uuid.MustParse(idC), uuid.MustParse(idD),
		),
	}
}

func (e *testEnv) options() *RootOptions {
	return &RootOptions{
		Env: e.env,
		Now: func() time.Time { return testNow },
		IDs: e.ids,
	}
}

// run executes one command line on a fresh command tree and returns its
// standard output.
func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	cmd := newRootCommand(e.options())

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

// seedItems stores the two items used by most tests: an outgoing invoice
// in February and an incoming one in March 2024.
func (e *testEnv) seedItems() {
	e.t.Helper()
	if _, err := e.run("items", "add", "--id", idA, "--date", "2024-02-10", "--direction", "out",
		"--name", "Website", "--company", "Acme GmbH", "--category", "Consulting",
		"--net", "1000", "--vat", "20"); err != nil {
		e.t.Fatalf("seed item A: %v", err)
	}
	if _, err := e.run("items", "add", "--id", idB, "--date", "2024-03-05", "--direction", "in",
		"--name", "Rent", "--company", "Landlord KG", "--category", "Office",
		"--net", "800", "--vat", "10"); err != nil {
		e.t.Fatalf("seed item B: %v", err)
	}
}

func assertGolden(t *testing.T, name, got string) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(got))
}
