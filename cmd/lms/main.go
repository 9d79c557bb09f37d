// Command lms is a terminal demo of the client core: it restores any
// persisted session, optionally logs in, fetches the catalog and the
// user's enrollments, and prints a summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"lms-client/internal/authapi"
	"lms-client/internal/catalog"
	"lms-client/internal/config"
	"lms-client/internal/courseapi"
	"lms-client/internal/domain"
	"lms-client/internal/enrollment"
	"lms-client/internal/kvstore"
	"lms-client/internal/session"
)

func main() {
	var (
		email    = flag.String("email", "", "login email (empty: restore persisted session only)")
		password = flag.String("password", "", "login password")
		enrollID = flag.String("enroll", "", "course id to enroll into after login")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	kv, err := kvstore.OpenSQLite(cfg.StatePath)
	if err != nil {
		log.Fatal(err)
	}
	defer kv.Close()

	auth := authapi.New(cfg.AuthBaseURL, cfg.HTTPTimeout, logger)
	courses := courseapi.New(cfg.CourseBaseURL, cfg.HTTPTimeout, logger)

	sess := session.New(auth, kv, logger)
	cache := catalog.New(courses, logger)
	syncer := enrollment.New(courses, sess, logger)

	sess.OnChange(func(u *domain.User) {
		syncer.OnUserChanged(ctx, u)
	})

	if err := sess.Restore(ctx); err != nil {
		fmt.Println("no restorable session:", err)
	}

	if *email != "" {
		if err := sess.Login(ctx, *email, *password); err != nil {
			log.Fatalf("login failed: %v", err)
		}
	}

	if err := cache.FetchAll(ctx); err != nil {
		fmt.Println("catalog unavailable, showing nothing:", err)
	}
	for i, c := range cache.Courses() {
		fmt.Printf("%d) %s [%s/%s] %s\n", i+1, c.Title, c.Category, c.Difficulty, c.Duration)
	}

	user := sess.User()
	if user == nil {
		fmt.Println("not logged in")
		return
	}
	fmt.Printf("logged in as %s (%s), %d enrolled\n", user.Name, user.Role, len(user.EnrolledCourseIDs))
	if exp := sess.TokenExpiry(); !exp.IsZero() {
		fmt.Printf("credential expires %s\n", exp.Format(time.RFC3339))
	}

	if *enrollID != "" {
		var target *domain.Course
		for _, c := range cache.Courses() {
			if c.ID == *enrollID {
				course := c
				target = &course
				break
			}
		}
		if target == nil {
			log.Fatalf("course %s not in catalog", *enrollID)
		}
		if err := syncer.Enroll(ctx, *target, *user); err != nil {
			log.Fatalf("enroll failed: %v", err)
		}
		fmt.Println("enrolled in", target.Title)
	}

	for _, r := range syncer.Records() {
		fmt.Printf("  enrolled: %s (%s)\n", r.Title, r.CourseID)
	}
}
