package model

// Item is one record of the report: a title with a hyperlink, a subheader
// and a list of bullet lines.
type Item struct {
	Title     string
	Link      string
	Subheader string
	Bullets   []string
}
