package notion

import (
	"fmt"
	"net/url"
	"strconv"

	"techdebt_export/internal/models"
)

const (
	dateLayout   = "2006-01-02 15:04:05"
	infoHeading  = "LogApplet Info"
	linkCaption  = "Click here to read the body of the log applet"
	objectBlock  = "block"
	typeText     = "text"
	typeHeading2 = "heading_2"
	typePara     = "paragraph"
)

// Page is the body of POST /v1/pages for Notion-Version 2021-08-16.
type Page struct {
	Parent     Parent     `json:"parent"`
	Properties Properties `json:"properties"`
	Children   []Block    `json:"children"`
}

type Parent struct {
	DatabaseID string `json:"database_id"`
}

type Properties struct {
	Name   TitleProperty  `json:"Name"`
	Status SelectProperty `json:"Status"`
}

type TitleProperty struct {
	Title []RichText `json:"title"`
}

type SelectProperty struct {
	Select SelectOption `json:"select"`
}

type SelectOption struct {
	Name string `json:"name"`
}

type RichText struct {
	Type string `json:"type,omitempty"`
	Text Text   `json:"text"`
}

type Text struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

type Link struct {
	URL string `json:"url"`
}

type Block struct {
	Object    string     `json:"object"`
	Type      string     `json:"type"`
	Heading2  *TextBlock `json:"heading_2,omitempty"`
	Paragraph *TextBlock `json:"paragraph,omitempty"`
}

type TextBlock struct {
	Text []RichText `json:"text"`
}

type PageOptions struct {
	DatabaseID string
	Status     string
	LogAppURL  string
}

func Title(rec models.DebtRecord) string {
	return fmt.Sprintf("LogApplet #%d created by %s about %s", rec.ID, rec.User, rec.Servers)
}

func Info(rec models.DebtRecord) string {
	return fmt.Sprintf("Creation Date: %s\nCreation User: %s\nRelevant Servers: %s\nLogApplet ID: %d",
		rec.Date.Format(dateLayout), rec.User, rec.Servers, rec.ID)
}

// LogLink points at the log applet entry: <base>?logid=<id>. Existing query
// parameters of base are preserved.
func LogLink(base string, id int64) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?logid=" + strconv.FormatInt(id, 10)
	}
	q := u.Query()
	q.Set("logid", strconv.FormatInt(id, 10))
	u.RawQuery = q.Encode()
	return u.String()
}

func BuildPage(opts PageOptions, rec models.DebtRecord) Page {
	return Page{
		Parent: Parent{DatabaseID: opts.DatabaseID},
		Properties: Properties{
			Name:   TitleProperty{Title: []RichText{{Text: Text{Content: Title(rec)}}}},
			Status: SelectProperty{Select: SelectOption{Name: opts.Status}},
		},
		Children: []Block{
			{
				Object:   objectBlock,
				Type:     typeHeading2,
				Heading2: &TextBlock{Text: []RichText{{Type: typeText, Text: Text{Content: infoHeading}}}},
			},
			{
				Object:    objectBlock,
				Type:      typePara,
				Paragraph: &TextBlock{Text: []RichText{{Type: typeText, Text: Text{Content: Info(rec)}}}},
			},
			{
				Object: objectBlock,
				Type:   typePara,
				Paragraph: &TextBlock{Text: []RichText{{
					Type: typeText,
					Text: Text{Content: linkCaption, Link: &Link{URL: LogLink(opts.LogAppURL, rec.ID)}},
				}}},
			},
		},
	}
}
