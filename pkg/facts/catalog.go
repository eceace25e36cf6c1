package facts

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dgarant/qed/pkg/logic"
)

var (
	// ErrFrozenCatalog is returned when a fact is asserted after the
	// derivation phase has ended.
	ErrFrozenCatalog = errors.New("catalog is frozen")
)

// Catalog is an append-only collection of schema facts. Insertion order is
// preserved and duplicates are tolerated; inference results are deduplicated
// downstream. Freeze ends the derivation phase, after which the catalog is
// read-only for the rest of the run.
type Catalog struct {
	facts  []Fact
	echo   io.Writer
	frozen bool
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{}
}

// SetEcho directs a copy of every asserted clause to w, matching the audit
// behavior of printing each fact before assertion.
func (c *Catalog) SetEcho(w io.Writer) {
	c.echo = w
}

// Assert appends a fact. Asserting after Freeze is an error.
func (c *Catalog) Assert(f Fact) error {
	if c.frozen {
		return ErrFrozenCatalog
	}
	if c.echo != nil {
		fmt.Fprintln(c.echo, f.Atom().String())
	}
	c.facts = append(c.facts, f)
	return nil
}

// AssertAll appends a batch of facts in order.
func (c *Catalog) AssertAll(fs ...Fact) error {
	for _, f := range fs {
		if err := c.Assert(f); err != nil {
			return err
		}
	}
	return nil
}

// Freeze ends the mutation phase.
func (c *Catalog) Freeze() { c.frozen = true }

// Len returns the number of asserted facts.
func (c *Catalog) Len() int { return len(c.facts) }

// Facts returns the asserted facts in insertion order.
func (c *Catalog) Facts() []Fact {
	out := make([]Fact, len(c.facts))
	copy(out, c.facts)
	return out
}

// Clauses renders every fact in clause syntax, in insertion order. The
// output doubles as a rule file that can seed a later run.
func (c *Catalog) Clauses() []string {
	out := make([]string, len(c.facts))
	for i, f := range c.facts {
		out[i] = f.Atom().String()
	}
	return out
}

// KnowledgeBase freezes the catalog and lowers it into a knowledge base
// pre-loaded with the design rule library.
func (c *Catalog) KnowledgeBase() (*logic.KnowledgeBase, error) {
	c.Freeze()
	kb, err := logic.NewQEDKnowledgeBase()
	if err != nil {
		return nil, err
	}
	for _, f := range c.facts {
		if err := kb.Assert(logic.Clause{Head: f.Atom()}); err != nil {
			return nil, err
		}
	}
	return kb, nil
}

// LoadClauseFile reads a rule file: one clause per line, '%' and '#'
// comments and blank lines skipped at assertion time by the knowledge base.
// Lines are returned verbatim so a seeded run replays exactly what a prior
// run echoed.
func LoadClauseFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rule file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	return lines, nil
}
