package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/docfind/docfind/internal/config"
	"github.com/docfind/docfind/internal/db"
	"github.com/docfind/docfind/internal/domain"
	"github.com/docfind/docfind/internal/export"
	"github.com/docfind/docfind/internal/ingestion"
	"github.com/docfind/docfind/internal/mapping"
	"github.com/docfind/docfind/internal/query"
	"github.com/docfind/docfind/internal/repository"
	"github.com/docfind/docfind/internal/template"
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	mappingPath := flag.String("mapping", "mapping.yaml", "entity mapping descriptor")
	methodName := flag.String("method", "", "finder method to execute, e.g. FindByNameAndAgeGreaterThan")
	argsJSON := flag.String("args", "[]", "finder arguments as a JSON array")
	exportFormat := flag.String("export", "", "export the result set instead of printing (xlsx or csv)")
	exportDir := flag.String("export-dir", "", "directory to write export files to")
	ingestFile := flag.String("ingest", "", "CSV or XLSX file to ingest into the mapped collection")
	flag.Parse()

	if *methodName == "" && *ingestFile == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Setup database connection
	cfg, err := config.LoadDBConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Run migrations
	if err := db.RunMigrations(cfg); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	conn, err := db.NewConnection(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	// Load the entity mapping descriptor
	entityMapping, err := mapping.LoadMapping(*mappingPath)
	if err != nil {
		log.Fatalf("Failed to load mapping: %v", err)
	}

	var args []any
	if err := json.Unmarshal([]byte(*argsJSON), &args); err != nil {
		log.Fatalf("Failed to decode -args as a JSON array: %v", err)
	}

	docTemplate := template.NewDocumentTemplate(conn.Pool)

	if *ingestFile != "" {
		if err := runIngest(ctx, docTemplate, entityMapping, *ingestFile); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	repo := repository.New(entityMapping, nil, docTemplate)

	if err := run(ctx, repo, docTemplate, entityMapping, *methodName, args, *exportFormat, *exportDir); err != nil {
		log.Fatalf("%v", err)
	}
}

func runIngest(ctx context.Context, docTemplate template.DocumentTemplate,
	entityMapping *mapping.EntityMapping, path string) error {

	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read ingest file: %w", err)
	}

	result, err := ingestion.NewService(docTemplate).Ingest(ctx, entityMapping, path, payload)
	if err != nil {
		return err
	}

	for _, rejected := range result.Rejected {
		log.Printf("[INGEST] row %d rejected: %s", rejected.Row, rejected.Message)
	}
	log.Printf("[INGEST] %s: inserted %d of %d row(s)", path, result.Inserted, result.Total)
	return nil
}

func run(ctx context.Context, repo *repository.Repository, docTemplate template.DocumentTemplate,
	entityMapping *mapping.EntityMapping, methodName string, args []any,
	exportFormat, exportDir string) error {

	parsed, err := query.ParseMethod(methodName)
	if err != nil {
		return err
	}

	switch parsed.Kind {
	case query.KindSelect:
		if exportFormat != "" {
			return runExport(ctx, docTemplate, entityMapping, methodName, args, exportFormat, exportDir)
		}
		stream, err := repo.Find(methodName, args...)
		if err != nil {
			return err
		}
		count := 0
		err = stream.ForEach(ctx, func(doc domain.Document) error {
			encoded, err := json.Marshal(doc)
			if err != nil {
				return err
			}
			fmt.Println(string(encoded))
			count++
			return nil
		})
		if err != nil {
			return err
		}
		log.Printf("[QUERY] %s matched %d document(s)", methodName, count)
		return nil

	case query.KindCount:
		single, err := repo.Count(methodName, args...)
		if err != nil {
			return err
		}
		count, err := single.Get(ctx)
		if err != nil {
			return err
		}
		fmt.Println(count)
		return nil

	case query.KindExists:
		single, err := repo.Exists(methodName, args...)
		if err != nil {
			return err
		}
		exists, err := single.Get(ctx)
		if err != nil {
			return err
		}
		fmt.Println(exists)
		return nil

	case query.KindDelete:
		single, err := repo.Delete(methodName, args...)
		if err != nil {
			return err
		}
		removed, err := single.Get(ctx)
		if err != nil {
			return err
		}
		log.Printf("[QUERY] %s removed %d document(s)", methodName, removed)
		return nil
	}

	return fmt.Errorf("method %q has unsupported kind %s", methodName, parsed.Kind)
}

func runExport(ctx context.Context, docTemplate template.DocumentTemplate,
	entityMapping *mapping.EntityMapping, methodName string, args []any,
	format, dir string) error {

	q, err := query.NewDeriver().DeriveSelect(methodName, args, entityMapping, mapping.NewConverters())
	if err != nil {
		return err
	}

	var opts []export.Option
	if dir != "" {
		opts = append(opts, export.WithExportDirectory(dir))
	}
	service := export.NewService(docTemplate, opts...)

	var path string
	switch format {
	case "xlsx":
		path, err = service.ExportXLSX(ctx, q, entityMapping)
	case "csv":
		path, err = service.ExportCSV(ctx, q, entityMapping)
	default:
		return fmt.Errorf("unsupported export format %q (expected xlsx or csv)", format)
	}
	if err != nil {
		return err
	}
	log.Printf("[EXPORT] wrote %s", path)
	return nil
}
