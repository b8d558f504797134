package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// IntegrationTestSuite provides base functionality for integration tests
type IntegrationTestSuite struct {
	suite.Suite
	ctx       context.Context
	cancel    context.CancelFunc
	tempDir   string
	startTime time.Time
}

// SetupSuite runs before all tests in the suite
func (s *IntegrationTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 5*time.Minute)
	s.startTime = time.Now()

	tempDir, err := os.MkdirTemp("", "tabula-test-*")
	require.NoError(s.T(), err)
	s.tempDir = tempDir

	s.T().Logf("Integration test suite started in %s", s.tempDir)
}

// TearDownSuite runs after all tests in the suite
func (s *IntegrationTestSuite) TearDownSuite() {
	s.cancel()

	if s.tempDir != "" {
		os.RemoveAll(s.tempDir)
	}

	s.T().Logf("Integration test suite completed in %v", time.Since(s.startTime))
}

// Context returns the test context
func (s *IntegrationTestSuite) Context() context.Context {
	return s.ctx
}

// TempDir returns the temporary directory path
func (s *IntegrationTestSuite) TempDir() string {
	return s.tempDir
}

// CreateTempFile writes text into the suite directory, compressed when the
// name has a compression suffix.
func (s *IntegrationTestSuite) CreateTempFile(name, text string) string {
	return WriteFile(s.T(), s.tempDir, name, text)
}

// IntegrationTest marks a test as an integration test
func IntegrationTest(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// GenerateTable builds a whitespace-delimited table with a header line and
// rows data lines. Columns cycle through integer, float and string values;
// every seventh string cell is empty, so it is masked by default.
func GenerateTable(rows, cols int) string {
	var b strings.Builder
	for c := 0; c < cols; c++ {
		if c > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "c%d", c)
	}
	b.WriteByte('\n')

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c > 0 {
				b.WriteByte(' ')
			}
			switch c % 3 {
			case 0:
				fmt.Fprintf(&b, "%d", r*cols+c)
			case 1:
				fmt.Fprintf(&b, "%.2f", float64(r)+0.25)
			default:
				if r%7 == 6 {
					b.WriteString(`""`)
				} else {
					fmt.Fprintf(&b, "s%d_%d", r, c)
				}
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
