// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/lib/pq"

	"github.com/relabs-tech/shopadmin/core/validate"
)

// writeJSON writes the response as JSON with the given status code
func writeJSON(w http.ResponseWriter, status int, response interface{}) {
	jsonData, _ := json.MarshalWithOption(response, json.DisableHTMLEscape())
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(jsonData)
}

// writeError writes a json error object with a human-readable message
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeValidationErrors writes the full list of field errors, so a
// frontend can annotate every offending field at once
func writeValidationErrors(w http.ResponseWriter, errors []validate.FieldError) {
	writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"message": "validation failed",
		"errors":  errors,
	})
}

// isUniqueViolation returns true if err is a postgres unique constraint violation
func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == "23505"
}

// round2 rounds a monetary value to two decimal places
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// monthLabel renders a calendar month as a short label like "Jan 2026"
func monthLabel(year, month int) string {
	return time.Month(month).String()[:3] + " " + strconv.Itoa(year)
}
