// Command exportroster writes the enrollment roster as a CSV feed and
// optionally uploads it to the registrar's SFTP drop.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lms-client/internal/concurrency"
	"lms-client/internal/config"
	"lms-client/internal/courseapi"
	"lms-client/internal/domain"
	"lms-client/internal/export"
	"lms-client/internal/normalize"
	"lms-client/internal/sftpclient"
)

func main() {
	var (
		outPath    = flag.String("out", "ROSTER-MAIN.csv", "output csv path (use .csv.br for compressed)")
		students   = flag.String("students", "", "comma-separated student ids (empty: all enrollments)")
		workers    = flag.Int("workers", 4, "parallel fetches when -students is set")
		uploadSFTP = flag.Bool("sftp", false, "upload the generated feed via SFTP")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	client := courseapi.New(cfg.CourseBaseURL, cfg.HTTPTimeout, logger)

	var raw []normalize.RawEnrollment
	if *students == "" {
		raw, err = client.ListAllEnrollments(ctx)
		if err != nil {
			log.Fatalf("list enrollments: %v", err)
		}
	} else {
		ids := strings.Split(*students, ",")
		perStudent, errs := concurrency.Map(ctx, ids, *workers,
			func(ctx context.Context, id string) ([]normalize.RawEnrollment, error) {
				return client.ListEnrollments(ctx, strings.TrimSpace(id))
			})
		for _, e := range errs {
			log.Fatalf("list enrollments: %v", e)
		}
		for _, batch := range perStudent {
			raw = append(raw, batch...)
		}
	}

	records := make([]domain.EnrollmentRecord, 0, len(raw))
	for _, r := range raw {
		records = append(records, normalize.Enrollment(r))
	}
	fmt.Printf("fetched %d enrollment records\n", len(records))

	if dir := filepath.Dir(*outPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal(err)
		}
	}

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatal(err)
	}
	if strings.HasSuffix(*outPath, ".br") {
		err = export.WriteRosterCSVBrotli(f, records)
	} else {
		err = export.WriteRosterCSV(f, records)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		log.Fatalf("write feed: %v", err)
	}
	fmt.Println("wrote", *outPath)

	if !*uploadSFTP {
		return
	}

	src, err := os.Open(*outPath)
	if err != nil {
		log.Fatal(err)
	}
	defer src.Close()

	err = sftpclient.Upload(ctx, sftpclient.Config{
		Host:      cfg.SFTPHost,
		Port:      cfg.SFTPPort,
		User:      cfg.SFTPUser,
		Pass:      cfg.SFTPPass,
		RemoteDir: cfg.SFTPRemoteDir,
	}, src, filepath.Base(*outPath))
	if err != nil {
		log.Fatalf("upload: %v", err)
	}
	fmt.Println("uploaded", filepath.Base(*outPath))
}
