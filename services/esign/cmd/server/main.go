package main

import (
	"net/http"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/MDx-Vision/nicehr-sub016/pkg/db"
	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/api"
	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/certificate"
	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/log"
	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/signing"
	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/store"
)

func main() {
	pool := db.MustConnect()
	if err := store.MigrateUp(pool); err != nil {
		log.Logger().WithError(err).Fatal("migrations failed")
	}
	st := store.New(pool)

	certPrefix := os.Getenv("CERT_PREFIX")
	if certPrefix == "" {
		certPrefix = "ESIGN"
	}
	policy := signing.Policy{
		RequireTypedNameMatch:  os.Getenv("ESIGN_REQUIRE_TYPED_NAME_MATCH") == "true",
		RequireCompletedReview: os.Getenv("ESIGN_REQUIRE_COMPLETED_REVIEW") == "true",
	}

	h := api.NewHandler(st, certificate.NewIssuer(certPrefix), policy)
	r := api.Router(h)

	port := os.Getenv("SERVICE_PORT")
	if port == "" {
		port = "8084"
	}
	log.Logger().WithFields(logrus.Fields{
		"port":                     port,
		"cert_prefix":              certPrefix,
		"require_typed_name_match": policy.RequireTypedNameMatch,
		"require_completed_review": policy.RequireCompletedReview,
	}).Info("esign service listening")
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Logger().WithError(err).Fatal("server exited")
	}
}
