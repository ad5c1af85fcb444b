package steam

import "encoding/json"

// newsResponse is the GetNewsForApp payload.
type newsResponse struct {
	AppNews struct {
		AppID     int64      `json:"appid"`
		NewsItems []newsItem `json:"newsitems"`
		Count     int        `json:"count"`
	} `json:"appnews"`
}

type newsItem struct {
	GID           string `json:"gid"`
	Title         string `json:"title"`
	URL           string `json:"url"`
	IsExternalURL bool   `json:"is_external_url"`
	Author        string `json:"author"`
	Contents      string `json:"contents"`
	FeedLabel     string `json:"feedlabel"`
	Date          int64  `json:"date"`
	FeedName      string `json:"feedname"`
}

// appDetailsResponse is keyed by the requested app id.
type appDetailsResponse map[string]appDetails

type appDetails struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type appData struct {
	Name        string `json:"name"`
	HeaderImage string `json:"header_image"`
}

type appListResponse struct {
	AppList struct {
		Apps []appEntry `json:"apps"`
	} `json:"applist"`
}

type appEntry struct {
	AppID int64  `json:"appid"`
	Name  string `json:"name"`
}
