package main

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RowKind tags a listing row. The portal renders date headers and event
// entries as sibling rows of the same table and distinguishes them only by a
// row-level class, so the kind is resolved once per row at parse time.
type RowKind int

const (
	RowUnknown RowKind = iota
	RowDateMarker
	RowEvent
)

// ScheduleRow is one row of a single listing snapshot. Index is the row's
// position within that snapshot; the listing is re-rendered on every reload,
// so an index never outlives the snapshot it came from.
type ScheduleRow struct {
	Index     int
	Kind      RowKind
	Text      string
	TimeLabel string
}

// ParseScheduleRows classifies every row of the rendered listing. Rows
// carrying neither marker class are kept as RowUnknown so positional grouping
// stays intact.
func ParseScheduleRows(html string, config *Config) ([]ScheduleRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing snapshot: %w", err)
	}

	var rows []ScheduleRow
	doc.Find(config.Selectors.ScheduleRows).Each(func(i int, s *goquery.Selection) {
		row := ScheduleRow{Index: i, Kind: RowUnknown}

		class, _ := s.Attr("class")
		switch {
		case strings.Contains(class, config.Markers.DateRowClass):
			row.Kind = RowDateMarker
		case strings.Contains(class, config.Markers.EventRowClass):
			row.Kind = RowEvent
		}

		row.Text = strings.TrimSpace(s.Text())
		row.TimeLabel = strings.TrimSpace(s.Find(config.Selectors.EventTimeLabel).Text())
		rows = append(rows, row)
	})

	return rows, nil
}

// FindTargetRow resolves the listing row for the configured event. Event rows
// belong to the nearest preceding date marker, so the scan is positional:
// locate the first marker whose header starts with targetHeader (headers may
// carry trailing annotations), then walk the event rows that follow until the
// group ends at the next non-event row.
func FindTargetRow(rows []ScheduleRow, targetHeader string, event *EventConfig, config *Config) (*ScheduleRow, error) {
	time12, err := To12Hour(event.Time)
	if err != nil {
		return nil, err
	}

	dateIndex := -1
	for i := range rows {
		if rows[i].Kind != RowDateMarker {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(rows[i].Text), targetHeader) {
			dateIndex = i
			break
		}
	}
	if dateIndex == -1 {
		return nil, fmt.Errorf("%w: %s", ErrDateNotFound, targetHeader)
	}

	for i := dateIndex + 1; i < len(rows); i++ {
		row := &rows[i]
		if row.Kind != RowEvent {
			break
		}

		if !strings.Contains(row.Text, event.Sport) ||
			!strings.Contains(row.Text, event.Location) ||
			!strings.HasPrefix(row.TimeLabel, time12) {
			continue
		}

		// The matched slot is the slot; a full marker here is terminal
		// rather than a reason to keep scanning.
		if strings.Contains(row.Text, config.Markers.FullText) {
			return nil, fmt.Errorf("%w: %s at %s", ErrEventFull, event.Sport, time12)
		}

		return row, nil
	}

	return nil, fmt.Errorf("%w: %s / %s / %s under %s", ErrEventNotFound, event.Sport, event.Location, time12, targetHeader)
}
