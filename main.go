package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/dgarant/qed/internal/manager"
	"github.com/dgarant/qed/pkg/config"
	"github.com/dgarant/qed/pkg/export"
	"github.com/dgarant/qed/pkg/facts"
	"github.com/dgarant/qed/pkg/logic"
	"github.com/dgarant/qed/pkg/report"
	"github.com/dgarant/qed/pkg/schema"
	"github.com/dgarant/qed/pkg/server"
)

func main() {
	configPath := flag.String("config", "", "path to a project.yaml file")
	rulesPath := flag.String("rules", "", "path to a rule file replayed instead of deriving from a database")
	dbPath := flag.String("db", "", "path to a SQLite database to derive facts from")
	outcome := flag.String("outcome", "movies_gross", "outcome attribute to report designs for")
	exportPath := flag.String("export", "", "write the schema graph as D3 JSON to this path")
	serverMode := flag.Bool("server", false, "run the REST API server over a directory of databases")
	quiet := flag.Bool("quiet", false, "do not echo derived facts")

	flag.Parse()

	_ = godotenv.Load()

	if *configPath != "" {
		p, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Config failed: %v", err)
		}
		if *dbPath == "" {
			*dbPath = p.Database
		}
		if *rulesPath == "" {
			*rulesPath = p.Rules
		}
		if p.Outcome != "" {
			*outcome = p.Outcome
		}
		if *exportPath == "" {
			*exportPath = p.ExportPath
		}
	}

	if *serverMode {
		baseDir := "./data"
		if args := flag.Args(); len(args) >= 1 {
			baseDir = args[0]
		}
		fmt.Printf("Starting REST API Server. Database directory: %s\n", baseDir)

		mgr := manager.NewSessionManager(baseDir)
		defer mgr.Purge()

		srv := server.NewServer(mgr)
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(":" + port); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
		return
	}

	var echo io.Writer
	if !*quiet {
		echo = os.Stdout
	}
	engine, err := buildEngine(*rulesPath, *dbPath, echo)
	if err != nil {
		log.Fatalf("Derivation failed: %v", err)
	}

	if *exportPath != "" {
		graph, err := export.BuildGraph(engine)
		if err != nil {
			log.Fatalf("Graph export failed: %v", err)
		}
		if err := export.SaveGraph(graph, *exportPath); err != nil {
			log.Fatalf("Graph export failed: %v", err)
		}
		slog.Info("schema graph written", "path", *exportPath)
	}

	reporter := report.NewReporter(engine, nil)
	if err := reporter.Report(os.Stdout, *outcome); err != nil {
		var unknown *report.UnknownOutcomeError
		if errors.As(err, &unknown) && len(unknown.Suggestions) > 0 {
			log.Fatalf("Report failed: %v (did you mean %v?)", err, unknown.Suggestions)
		}
		log.Fatalf("Report failed: %v", err)
	}
}

// buildEngine derives the fact base from a rule file or a live database. A
// rule file wins over a database so a prior run's echoed facts replay
// exactly. Every asserted clause, the design rule library included, is
// echoed to the writer so a captured run replays as a complete rule file.
func buildEngine(rulesPath, dbPath string, echo io.Writer) (*logic.Engine, error) {
	if rulesPath != "" {
		kb, err := logic.NewQEDKnowledgeBase()
		if err != nil {
			return nil, err
		}
		lines, err := facts.LoadClauseFile(rulesPath)
		if err != nil {
			return nil, err
		}
		if echo != nil {
			for _, line := range lines {
				fmt.Fprintln(echo, line)
			}
			echoRuleLibrary(echo)
		}
		if err := kb.LoadClauses(lines); err != nil {
			return nil, err
		}
		return logic.NewEngine(kb), nil
	}

	if dbPath == "" {
		return nil, fmt.Errorf("no fact source: pass --db, --rules or --config")
	}

	ctx := context.Background()
	db, err := schema.OpenSQLite(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	tables, err := schema.Reflect(ctx, db)
	if err != nil {
		return nil, err
	}

	catalog := facts.NewCatalog()
	if echo != nil {
		catalog.SetEcho(echo)
	}
	if err := schema.NewExtractor(catalog).ExtractSchema(tables); err != nil {
		return nil, err
	}
	if echo != nil {
		echoRuleLibrary(echo)
	}
	kb, err := catalog.KnowledgeBase()
	if err != nil {
		return nil, err
	}
	return logic.NewEngine(kb), nil
}

func echoRuleLibrary(w io.Writer) {
	for _, rule := range logic.QEDRules {
		fmt.Fprintln(w, rule)
	}
}
