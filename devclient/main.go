// Dev/test client for dev/test/troubleshooting. Drives the full
// report-authoring flow against a running backend from the command
// line: capture, location, summary fetch, submit.
package main

import (
	"context"
	"flag"
	"time"

	"safestreet/client"
	"safestreet/geocode"
	"safestreet/media"
	"safestreet/models"
	"safestreet/summary"
	"safestreet/workflow"

	"github.com/apex/log"
)

var (
	serviceURL = flag.String("service_url", "http://127.0.0.1:8080", "Base URL of the backend.")
	captionURL = flag.String("caption_url", "http://127.0.0.1:5001/analyze", "URL of the captioning service.")
	userID     = flag.String("user_id", "dev-user", "User id to submit as.")
	imagePath  = flag.String("image", "", "Path of the image to submit.")
	address    = flag.String("address", "", "Manual address. Mutually exclusive with -lat/-lon.")
	lat        = flag.Float64("lat", 0, "Device latitude.")
	lon        = flag.Float64("lon", 0, "Device longitude.")
)

func main() {
	flag.Parse()
	if *imagePath == "" {
		log.Fatal("-image is required")
	}

	normalizer := media.NewNormalizer("", nil)
	w := workflow.New(
		summary.NewClient(*captionURL),
		client.New(*serviceURL),
		geocode.NewClient(""),
		normalizer.Normalize,
	)

	ctx := context.Background()
	must(w.Start())
	must(w.SelectRole(models.RoleWorker))
	must(w.GoToLogin())
	must(w.LoginSucceeded(*userID, "Dev User", "dev@example.com"))
	must(w.BeginCapture())
	must(w.AttachImage(*imagePath))
	must(w.EnterLocation())
	if *address != "" {
		must(w.SetManualAddress(*address))
	} else {
		must(w.UseDeviceLocation(ctx, *lat, *lon))
	}
	must(w.LocationDone())
	must(w.EnterSummary(ctx))

	for w.Draft().SummaryPending {
		time.Sleep(200 * time.Millisecond)
	}
	d := w.Draft()
	if d.SummaryErr != nil {
		log.WithError(d.SummaryErr).Warn("Summary fetch failed, submitting without one")
	} else {
		log.Infof("Summary: %s", d.Summary)
	}

	must(w.ConfirmSubmit(ctx))
	log.Info("Report submitted")
}

func must(err error) {
	if err != nil {
		log.WithError(err).Fatal("Flow step failed")
	}
}
