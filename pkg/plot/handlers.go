package plot

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/raykavin/bullseye/pkg/core"
)

const invalidTicker = "Invalid Ticker!"

// pageData is the template context of every page
type pageData struct {
	Title    string
	Ticker   string
	Tickers  []string
	Year     int
	Summary  *Summary
	Failures []string
	Figure   template.JS
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// handleIndex handles the home page request
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.render(w, s.indexHTML, pageData{
		Title:   "Bullseye",
		Tickers: s.source.Tickers(),
		Year:    time.Now().Year(),
	})
}

// handleViz handles the single ticker page
func (s *Server) handleViz(w http.ResponseWriter, r *http.Request) {
	ticker := core.NormalizeTicker(r.URL.Query().Get("ticker"))

	page, err := s.source.Single(r.Context(), ticker)
	if err != nil {
		s.writeError(w, ticker, err)
		return
	}

	s.renderChart(w, ticker, page)
}

// handleDashboard handles the multi ticker page
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	page, err := s.source.Multi(r.Context(), s.requestTickers(r))
	if err != nil {
		s.writeError(w, "", err)
		return
	}

	s.renderChart(w, "", page)
}

// handleData handles figure data requests
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	var (
		page   Page
		err    error
		ticker = core.NormalizeTicker(r.URL.Query().Get("ticker"))
	)

	if ticker != "" {
		page, err = s.source.Single(r.Context(), ticker)
	} else {
		page, err = s.source.Multi(r.Context(), s.requestTickers(r))
	}
	if err != nil {
		s.writeError(w, ticker, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(page); err != nil {
		s.log.WithError(err).Error("JSON encoding failed")
	}
}

// handleHistory handles CSV export of the derived series
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ticker := core.NormalizeTicker(r.URL.Query().Get("ticker"))

	df, err := s.source.Frame(r.Context(), ticker)
	if err != nil {
		s.writeError(w, ticker, err)
		return
	}

	// Create CSV in memory
	buffer := bytes.NewBuffer(nil)
	if err := WriteCSV(buffer, df, s.source.Features().Columns()); err != nil {
		s.log.WithError(err).WithField("ticker", ticker).Error("Failed writing CSV")
		http.Error(w, "Failed to generate CSV", http.StatusInternalServerError)
		return
	}

	// Set headers for CSV download
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment;filename=history_"+ticker+".csv")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buffer.Bytes()); err != nil {
		s.log.WithError(err).Error("Failed writing CSV response")
	}
}

// requestTickers reads the tickers query parameter, defaulting to the
// configured list
func (s *Server) requestTickers(r *http.Request) []string {
	if value := r.URL.Query().Get("tickers"); value != "" {
		return core.NormalizeTickers(strings.Split(value, ","))
	}
	return s.source.Tickers()
}

func (s *Server) renderChart(w http.ResponseWriter, ticker string, page Page) {
	figure, err := json.Marshal(page)
	if err != nil {
		s.log.WithError(err).Error("JSON encoding failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	title := "Dashboard"
	if page.Summary != nil {
		title = page.Summary.Name
	}

	s.render(w, s.chartHTML, pageData{
		Title:    title,
		Ticker:   ticker,
		Tickers:  page.Chart.Tickers(),
		Year:     time.Now().Year(),
		Summary:  page.Summary,
		Failures: page.Failures,
		Figure:   template.JS(figure),
	})
}

func (s *Server) render(w http.ResponseWriter, tmpl *template.Template, data pageData) {
	buffer := bytes.NewBuffer(nil)
	if err := tmpl.ExecuteTemplate(buffer, "layout", data); err != nil {
		s.log.WithError(err).Error("Template execution failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buffer.Bytes()); err != nil {
		s.log.WithError(err).Error("Failed writing page")
	}
}

func (s *Server) writeError(w http.ResponseWriter, ticker string, err error) {
	if errors.Is(err, core.ErrInvalidTicker) {
		http.Error(w, invalidTicker, http.StatusNotFound)
		return
	}

	s.log.WithError(err).WithField("ticker", ticker).Error("Request failed")
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

// WriteCSV writes the dataframe followed by the named derived columns; null
// entries are left empty
func WriteCSV(w io.Writer, df *core.Dataframe, columns []string) error {
	csvWriter := csv.NewWriter(w)

	header := append([]string{"date", "open", "high", "low", "close", "volume"}, columns...)
	if err := csvWriter.Write(header); err != nil {
		return err
	}

	for i := 0; i < df.Len(); i++ {
		row := []string{
			df.Time[i].Format(dateLayout),
			formatFloat(df.Open[i]),
			formatFloat(df.High[i]),
			formatFloat(df.Low[i]),
			formatFloat(df.Close[i]),
			formatFloat(df.Volume[i]),
		}
		for _, name := range columns {
			value := ""
			if column := df.Derived[name]; i < len(column) && column[i].Valid {
				value = formatFloat(column[i].Float64)
			}
			row = append(row, value)
		}
		if err := csvWriter.Write(row); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func formatFloat(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return ""
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
