package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dsjohal14/synfinder/internal/libs/config"
	"github.com/dsjohal14/synfinder/internal/scope/search"
	"github.com/dsjohal14/synfinder/internal/scope/search/routines"
)

type matchOptions struct {
	database      string
	address       string
	file          string
	routines      []string
	types         []string
	maxEdit       int
	substringMin  int
	caseSensitive bool
	force         bool
	jsonOutput    bool
}

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var opts matchOptions

	cmd := &cobra.Command{
		Use:   "match [terms...]",
		Short: "Match terms against a database",
		Example: `  synfinder match -d T3/Wheat KANSAS "PI 12345"
  synfinder match -d T3/Wheat --file names.txt --routines exact,edit_distance`,
		RunE: func(cmd *cobra.Command, args []string) error {
			values := args
			if opts.file != "" {
				lines, err := readTerms(opts.file)
				if err != nil {
					return err
				}
				values = append(values, lines...)
			}
			queries := search.Terms(values...)
			if len(queries) == 0 {
				return fmt.Errorf("no terms given")
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			db, err := ctx.database(opts.database, opts.address)
			if err != nil {
				return err
			}
			searchCfg, err := opts.config(cmd, cfg.Search)
			if err != nil {
				return err
			}

			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = ctx.close() }()

			results, err := a.Service.Search(cmd.Context(), "", queries, db, searchCfg, opts.force)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			printMatches(out, queries, results)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.database, "database", "d", "", "Configured database name")
	flags.StringVar(&opts.address, "address", "", "BrAPI base address of an unconfigured database")
	flags.StringVarP(&opts.file, "file", "f", "", "Read terms from a file, one per line")
	flags.StringSliceVarP(&opts.routines, "routines", "r", nil, "Search routines ("+strings.Join(routines.Keys(), ", ")+")")
	flags.StringSliceVarP(&opts.types, "types", "t", nil, "Database term types (name, synonym, accession_number, cross)")
	flags.IntVar(&opts.maxEdit, "max-edit-distance", 0, "Maximum edit distance")
	flags.IntVar(&opts.substringMin, "substring-min-length", 0, "Minimum substring length")
	flags.BoolVar(&opts.caseSensitive, "case-sensitive", false, "Compare terms case-sensitively")
	flags.BoolVar(&opts.force, "force", false, "Refresh the cache before searching")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Write the results as JSON")

	return cmd
}

// config builds the search config from the flags, falling back to the
// configured defaults for flags left unset
func (o matchOptions) config(cmd *cobra.Command, defaults config.SearchDefaults) (search.Config, error) {
	cfg := search.Config{
		IncludeTypes:   search.AllTypes(),
		Routines:       defaults.Routines,
		CaseSensitive:  defaults.CaseSensitive,
		RoutineOptions: defaults.Options(),
	}

	flags := cmd.Flags()
	if flags.Changed("routines") {
		cfg.Routines = o.routines
	}
	if flags.Changed("max-edit-distance") {
		cfg.RoutineOptions.MaxEditDistance = o.maxEdit
	}
	if flags.Changed("substring-min-length") {
		cfg.RoutineOptions.SubstringMinLength = o.substringMin
	}
	if flags.Changed("case-sensitive") {
		cfg.CaseSensitive = o.caseSensitive
	}
	if len(o.types) > 0 {
		var it search.IncludeTypes
		for _, t := range o.types {
			switch search.TermType(strings.TrimSpace(t)) {
			case search.TypeName:
				it.Name = true
			case search.TypeSynonym:
				it.Synonym = true
			case search.TypeAccessionNumber:
				it.AccessionNumber = true
			case search.TypeCross:
				it.Cross = true
			default:
				return cfg, fmt.Errorf("unknown term type %q", t)
			}
		}
		cfg.IncludeTypes = it
	}
	return cfg, cfg.Validate()
}

func readTerms(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var terms []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		terms = append(terms, scanner.Text())
	}
	return terms, scanner.Err()
}

// printMatches writes one table row per match, in query order and ranked
// within each query
func printMatches(out io.Writer, queries []search.QueryTerm, results search.Results) {
	rows := make([][]string, 0, len(queries))
	seen := make(map[string]bool, len(queries))
	for _, q := range queries {
		if seen[q.Term] {
			continue
		}
		seen[q.Term] = true

		rec, ok := results[q.Term]
		if !ok || len(rec.Matches) == 0 {
			rows = append(rows, []string{q.Term, "", "", "", ""})
			continue
		}
		for _, m := range rec.Ranked() {
			name := m.Name
			if name == rec.ExactMatchName {
				name += " *"
			}
			rows = append(rows, []string{q.Term, name, m.RecordID, strconv.Itoa(m.Weight), evidence(m.Match)})
		}
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Term", "Match", "Record", "Weight", "Routines"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
}

// evidence lists the distinct routines behind a match
func evidence(m *search.Match) string {
	set := make(map[string]bool, len(m.MatchedTerms))
	for _, mt := range m.MatchedTerms {
		set[mt.Routine.Key] = true
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
