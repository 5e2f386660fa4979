// Command aqlrun seeds an in-memory collection, runs one of the MVCC
// collection read primitives against it, and prints the result — either
// directly, or funneled through a small hand-built execution-block
// pipeline (--pipeline) to exercise the block package end to end.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"github.com/arangodb/aqlcore/collection"
	"github.com/arangodb/aqlcore/config"
	"github.com/arangodb/aqlcore/logging"
	"github.com/arangodb/aqlcore/memstore"
	"github.com/arangodb/aqlcore/mvcc"
)

func main() {
	app := &cli.App{
		Name:  "aqlrun",
		Usage: "run a collection read primitive against a seeded in-memory collection",
		Commands: []*cli.Command{
			{
				Name:  "by-example",
				Usage: "full scan matching a JSON example object (BY_EXAMPLE)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "example", Value: "{}", Usage: "JSON object for the match"},
					&cli.IntFlag{Name: "skip", Value: 0},
					&cli.IntFlag{Name: "limit", Value: -1},
					&cli.BoolFlag{Name: "pipeline", Usage: "run the result through a Filter+Limit+Return block pipeline before printing"},
					&cli.IntFlag{Name: "min-age", Value: 0, Usage: "with --pipeline, the Filter predicate: age >= min-age"},
				},
				Action: runByExample,
			},
			{
				Name:  "by-example-hash",
				Usage: "hash-index lookup matching a JSON example object (BY_EXAMPLE_HASH)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "fields", Value: "city", Usage: "comma-separated index field list, in declaration order"},
					&cli.StringFlag{Name: "example", Value: "{}", Usage: "JSON object for the match"},
					&cli.IntFlag{Name: "skip", Value: 0},
					&cli.IntFlag{Name: "limit", Value: -1},
				},
				Action: runByExampleHash,
			},
			{
				Name:  "by-condition-skiplist",
				Usage: "skiplist lookup over a field-prefix condition (BY_CONDITION_SKIPLIST)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "fields", Value: "city,age", Usage: "comma-separated index field list, in declaration order"},
					&cli.StringSliceFlag{Name: "cond", Usage: "field:op:value, repeatable; op is one of eq,lt,lte,gt,gte"},
					&cli.IntFlag{Name: "skip", Value: 0},
					&cli.IntFlag{Name: "limit", Value: -1},
					&cli.BoolFlag{Name: "reverse"},
				},
				Action: runByConditionSkiplist,
			},
			{
				Name:  "edges",
				Usage: "edge lookup over a seeded \"knows\" edge collection (EDGES/INEDGES/OUTEDGES)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "vertex", Value: "people/1", Usage: "vertex document handle"},
					&cli.StringFlag{Name: "direction", Value: "any", Usage: "any, in, or out"},
				},
				Action: runEdges,
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info"},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "aqlrun:", err)
		os.Exit(1)
	}
}

func runByExample(c *cli.Context) error {
	log := logging.New("aqlrun", c.String("log-level"))
	defer func() { _ = log.Sync() }()

	store := seedStore()
	cfg := config.Default()
	shaper := memstore.NewShaper(store, 256)
	coll := collection.New("people", mvcc.KindDocument, store, shaper, store).WithConfig(cfg)

	example, err := collection.ParseExample([]byte(c.String("example")))
	if err != nil {
		return fmt.Errorf("aqlrun: %w", err)
	}

	ctx := context.Background()
	result, err := coll.ByExample(ctx, example, c.Int("skip"), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("aqlrun: by-example: %w", err)
	}
	log.Info("by-example done", "matched", result.Total, "returned", result.Count)

	docs := result.Documents
	if c.Bool("pipeline") {
		docs, err = runPipeline(ctx, docs, float64(c.Int("min-age")), cfg)
		if err != nil {
			return fmt.Errorf("aqlrun: pipeline: %w", err)
		}
	}

	printDocuments(docs)
	return nil
}

func runByExampleHash(c *cli.Context) error {
	log := logging.New("aqlrun", c.String("log-level"))
	defer func() { _ = log.Sync() }()

	store := seedStore()
	cfg := config.Default()
	shaper := memstore.NewShaper(store, 256)
	coll := collection.New("people", mvcc.KindDocument, store, shaper, store).WithConfig(cfg)

	fields := splitFields(c.String("fields"))
	idx, err := memstore.NewHashIndex(store, "people", fields)
	if err != nil {
		return fmt.Errorf("aqlrun: build hash index: %w", err)
	}

	example, err := collection.ParseExample([]byte(c.String("example")))
	if err != nil {
		return fmt.Errorf("aqlrun: %w", err)
	}

	docs, err := coll.ByExampleHash(context.Background(), idx, example, c.Int("skip"), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("aqlrun: by-example-hash: %w", err)
	}
	log.Info("by-example-hash done", "returned", len(docs))

	printDocuments(docs)
	return nil
}

func runByConditionSkiplist(c *cli.Context) error {
	log := logging.New("aqlrun", c.String("log-level"))
	defer func() { _ = log.Sync() }()

	store := seedStore()
	cfg := config.Default()
	shaper := memstore.NewShaper(store, 256)
	coll := collection.New("people", mvcc.KindDocument, store, shaper, store).WithConfig(cfg)

	fields := splitFields(c.String("fields"))
	idx, err := memstore.NewSkiplistIndex(store, "people", fields)
	if err != nil {
		return fmt.Errorf("aqlrun: build skiplist index: %w", err)
	}

	cond, err := parseConditions(c.StringSlice("cond"))
	if err != nil {
		return fmt.Errorf("aqlrun: %w", err)
	}

	result, err := coll.ByConditionSkiplist(context.Background(), idx, cond, c.Int("skip"), c.Int("limit"), c.Bool("reverse"))
	if err != nil {
		return fmt.Errorf("aqlrun: by-condition-skiplist: %w", err)
	}
	log.Info("by-condition-skiplist done", "matched", result.Total, "returned", result.Count)

	printDocuments(result.Documents)
	return nil
}

func runEdges(c *cli.Context) error {
	log := logging.New("aqlrun", c.String("log-level"))
	defer func() { _ = log.Sync() }()

	store := seedStore()
	seedKnowsEdges(store)
	cfg := config.Default()
	shaper := memstore.NewShaper(store, 256)
	coll := collection.New("knows", mvcc.KindEdge, store, shaper, store).WithConfig(cfg)

	idx := memstore.NewEdgeIndex(store, "knows")

	var (
		docs []map[string]any
		err  error
	)
	switch c.String("direction") {
	case "in":
		docs, err = coll.InEdges(context.Background(), idx, c.String("vertex"))
	case "out":
		docs, err = coll.OutEdges(context.Background(), idx, c.String("vertex"))
	default:
		docs, err = coll.Edges(context.Background(), idx, c.String("vertex"), collection.DirAny)
	}
	if err != nil {
		return fmt.Errorf("aqlrun: edges: %w", err)
	}
	log.Info("edges done", "returned", len(docs))

	printDocuments(docs)
	return nil
}

func splitFields(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}

// parseConditions decodes repeated "field:op:value" flags into the
// per-field condition map ByConditionSkiplist expects, parsing value as a
// float64 when possible and as a string otherwise.
func parseConditions(raw []string) (map[string][]collection.FieldCond, error) {
	cond := make(map[string][]collection.FieldCond)
	for _, r := range raw {
		parts := splitN(r, ':', 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid --cond %q, want field:op:value", r)
		}
		field, opStr, valStr := parts[0], parts[1], parts[2]
		op, err := parseOp(opStr)
		if err != nil {
			return nil, fmt.Errorf("--cond %q: %w", r, err)
		}
		cond[field] = append(cond[field], collection.FieldCond{Op: op, Value: parseValue(valStr)})
	}
	return cond, nil
}

func parseOp(s string) (collection.Op, error) {
	switch s {
	case "eq":
		return collection.OpEq, nil
	case "lt":
		return collection.OpLt, nil
	case "lte":
		return collection.OpLte, nil
	case "gt":
		return collection.OpGt, nil
	case "gte":
		return collection.OpGte, nil
	default:
		return 0, fmt.Errorf("unknown operator %q", s)
	}
}

func parseValue(s string) any {
	var f float64
	if _, err := fmt.Sscanf(s, "%g", &f); err == nil && fmt.Sprintf("%g", f) == s {
		return f
	}
	return s
}

func splitN(s string, sep byte, n int) []string {
	var out []string
	start := 0
	for i := 0; i < len(s) && len(out) < n-1; i++ {
		if s[i] == sep {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func printDocuments(docs []map[string]any) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"_key", "name", "age", "city"})
	for _, d := range docs {
		t.AppendRow(table.Row{d["_key"], d["name"], d["age"], d["city"]})
	}
	t.Render()
}

// seedStore populates a tiny "people" document collection so aqlrun has
// something to run against without wiring a real storage backend.
func seedStore() *memstore.Store {
	store := memstore.New()
	people := []map[string]any{
		{"_key": "1", "name": "ana", "age": float64(30), "city": "cluj"},
		{"_key": "2", "name": "bogdan", "age": float64(22), "city": "cluj"},
		{"_key": "3", "name": "carmen", "age": float64(41), "city": "sibiu"},
		{"_key": "4", "name": "dan", "age": float64(19), "city": "iasi"},
		{"_key": "5", "name": "elena", "age": float64(35), "city": "iasi"},
	}
	for _, p := range people {
		key := p["_key"].(string)
		_ = store.Insert("people", mvcc.KindDocument, key, p, "", "")
	}
	return store
}

// seedKnowsEdges populates a "knows" edge collection over seedStore's
// people: 1->2, 2->1, 2->3.
func seedKnowsEdges(store *memstore.Store) {
	edges := []struct {
		key, from, to string
	}{
		{"e1", "people/1", "people/2"},
		{"e2", "people/2", "people/1"},
		{"e3", "people/2", "people/3"},
	}
	for _, e := range edges {
		body := map[string]any{"_key": e.key, "_from": e.from, "_to": e.to}
		_ = store.Insert("knows", mvcc.KindEdge, e.key, body, e.from, e.to)
	}
}
