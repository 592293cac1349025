package contentdb

import (
	"context"
	"time"

	"tango-agenda/core/config"
	"tango-agenda/core/logger"

	"github.com/jomei/notionapi"
)

// Property names in the external content database.
const (
	propTitle      = "Name"
	propDate       = "Date"
	propCity       = "City"
	propCountry    = "Country"
	propCategories = "Categories"
	propLink       = "Link"
)

// EventRecord is the subset of event fields mirrored in the external content
// database (the legacy/alternate entry path).
type EventRecord struct {
	PageID     string
	Title      string
	StartDate  time.Time
	EndDate    *time.Time
	City       string
	Country    string
	Categories []string
	Link       string
}

// Client talks to the external content database. A nil client (missing
// token/database id) disables mirroring.
type Client struct {
	api        *notionapi.Client
	databaseID notionapi.DatabaseID
}

// NewClient builds the content-database client, or a disabled one when the
// token or database id is absent.
func NewClient(cfg config.ContentDBConfig) *Client {
	if cfg.Token == "" || cfg.EventsDatabaseID == "" {
		return &Client{}
	}
	logger.Info("Content database client initialized", "database", cfg.EventsDatabaseID)
	return &Client{
		api:        notionapi.NewClient(notionapi.Token(cfg.Token)),
		databaseID: notionapi.DatabaseID(cfg.EventsDatabaseID),
	}
}

// Enabled reports whether the mirror is configured.
func (c *Client) Enabled() bool {
	return c.api != nil
}

// PushEvent creates a page mirroring the event and returns its page id.
func (c *Client) PushEvent(ctx context.Context, rec EventRecord) (string, error) {
	if c.api == nil {
		return "", nil
	}

	props := notionapi.Properties{
		propTitle: notionapi.TitleProperty{
			Title: richText(rec.Title),
		},
		propDate: notionapi.DateProperty{
			Date: dateObject(rec.StartDate, rec.EndDate),
		},
		propCity: notionapi.RichTextProperty{
			RichText: richText(rec.City),
		},
		propCountry: notionapi.RichTextProperty{
			RichText: richText(rec.Country),
		},
		propCategories: notionapi.MultiSelectProperty{
			MultiSelect: options(rec.Categories),
		},
	}
	if rec.Link != "" {
		props[propLink] = notionapi.URLProperty{URL: rec.Link}
	}

	page, err := c.api.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: c.databaseID,
		},
		Properties: props,
	})
	if err != nil {
		logger.Error("ContentDB:PushEvent", err, "title", rec.Title)
		return "", err
	}
	return string(page.ID), nil
}

// PullEvents queries the content database and returns every row as a record.
// Rows that lack a title or start date are skipped.
func (c *Client) PullEvents(ctx context.Context) ([]EventRecord, error) {
	if c.api == nil {
		return nil, nil
	}

	var out []EventRecord
	var cursor notionapi.Cursor
	for {
		resp, err := c.api.Database.Query(ctx, c.databaseID, &notionapi.DatabaseQueryRequest{
			StartCursor: cursor,
		})
		if err != nil {
			logger.Error("ContentDB:PullEvents", err)
			return nil, err
		}

		for _, page := range resp.Results {
			rec, ok := recordFromPage(page)
			if ok {
				out = append(out, rec)
			}
		}

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}
	return out, nil
}

func recordFromPage(page notionapi.Page) (EventRecord, bool) {
	rec := EventRecord{PageID: string(page.ID)}

	for name, prop := range page.Properties {
		switch p := prop.(type) {
		case *notionapi.TitleProperty:
			if name == propTitle {
				rec.Title = plainText(p.Title)
			}
		case *notionapi.DateProperty:
			if name == propDate && p.Date != nil && p.Date.Start != nil {
				rec.StartDate = time.Time(*p.Date.Start)
				if p.Date.End != nil {
					end := time.Time(*p.Date.End)
					rec.EndDate = &end
				}
			}
		case *notionapi.RichTextProperty:
			switch name {
			case propCity:
				rec.City = plainText(p.RichText)
			case propCountry:
				rec.Country = plainText(p.RichText)
			}
		case *notionapi.MultiSelectProperty:
			if name == propCategories {
				for _, opt := range p.MultiSelect {
					rec.Categories = append(rec.Categories, opt.Name)
				}
			}
		case *notionapi.URLProperty:
			if name == propLink {
				rec.Link = p.URL
			}
		}
	}

	if rec.Title == "" || rec.StartDate.IsZero() {
		return EventRecord{}, false
	}
	return rec, true
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{{Text: &notionapi.Text{Content: s}}}
}

func plainText(rt []notionapi.RichText) string {
	out := ""
	for _, t := range rt {
		out += t.PlainText
	}
	return out
}

func options(names []string) []notionapi.Option {
	out := make([]notionapi.Option, 0, len(names))
	for _, n := range names {
		out = append(out, notionapi.Option{Name: n})
	}
	return out
}

func dateObject(start time.Time, end *time.Time) *notionapi.DateObject {
	s := notionapi.Date(start)
	obj := &notionapi.DateObject{Start: &s}
	if end != nil {
		e := notionapi.Date(*end)
		obj.End = &e
	}
	return obj
}
