package newsapi

// Source identifies the publisher of an Article.
type Source struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Article is a news article as returned by the /everything endpoint. Nullable
// upstream fields decode to empty strings.
type Article struct {
	Source      Source `json:"source"`
	Author      string `json:"author,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage,omitempty"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content,omitempty"`
}

// Response is the envelope of an /everything reply.
type Response struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
	Code         string    `json:"code,omitempty"`
	Message      string    `json:"message,omitempty"`
}

// Lang is an upstream language code.
type Lang string

// Languages the reader queries.
const (
	LangPT Lang = "pt"
	LangEN Lang = "en"
	LangES Lang = "es"
)

// MapCountryToLang maps a country selector to the language queried for it:
// "US" reads English, everything else Portuguese.
func MapCountryToLang(country string) Lang {
	if country == "US" {
		return LangEN
	}
	return LangPT
}
