package catalog

import (
	"encoding/xml"
	"fmt"
	"strconv"
)

// SearchResult is one hit from a catalog search, in the provider's own
// relevance order.
type SearchResult struct {
	ID            int
	Name          string
	YearPublished string
}

// GameDetails carries everything /thing returns that we render. Every
// field is resolved to a concrete value here; "maybe missing" XML shapes
// never leave this package.
type GameDetails struct {
	ID            int
	Name          string
	YearPublished string
	MinPlayers    string
	MaxPlayers    string
	PlayingTime   string
	AverageRating string
	Rank          string
	Description   string
	Link          string
	Image         string
}

// Sentinels used when the upstream omits a field.
const (
	UnknownName  = "Unknown Name"
	UnknownYear  = "Unknown Year"
	UnknownValue = "Unknown"
	NotAvailable = "N/A"
	gameLinkStub = "https://boardgamegeek.com/boardgame/%d"
)

// BGG XML shapes. Attributes carry the payload; most elements are
// optional, and <name> repeats with a type attribute.

type xmlItems struct {
	XMLName xml.Name  `xml:"items"`
	Items   []xmlItem `xml:"item"`
}

type xmlItem struct {
	ID            int       `xml:"id,attr"`
	Names         []xmlName `xml:"name"`
	YearPublished *xmlValue `xml:"yearpublished"`
	MinPlayers    *xmlValue `xml:"minplayers"`
	MaxPlayers    *xmlValue `xml:"maxplayers"`
	PlayingTime   *xmlValue `xml:"playingtime"`
	Description   string    `xml:"description"`
	Image         string    `xml:"image"`
	Statistics    *xmlStats `xml:"statistics"`
}

type xmlName struct {
	Type  string `xml:"type,attr"`
	Value string `xml:"value,attr"`
}

type xmlValue struct {
	Value string `xml:"value,attr"`
}

type xmlStats struct {
	Ratings xmlRatings `xml:"ratings"`
}

type xmlRatings struct {
	Average *xmlValue `xml:"average"`
	Ranks   []xmlRank `xml:"ranks>rank"`
}

type xmlRank struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

func decodeItems(data []byte) (xmlItems, error) {
	var items xmlItems
	if err := xml.Unmarshal(data, &items); err != nil {
		return xmlItems{}, err
	}
	return items, nil
}

// primaryName picks the type="primary" entry, falling back to the first
// listed name.
func primaryName(names []xmlName) (string, bool) {
	for _, n := range names {
		if n.Type == "primary" && n.Value != "" {
			return n.Value, true
		}
	}
	for _, n := range names {
		if n.Value != "" {
			return n.Value, true
		}
	}
	return "", false
}

func attrOr(v *xmlValue, fallback string) string {
	if v != nil && v.Value != "" {
		return v.Value
	}
	return fallback
}

func toSearchResult(it xmlItem) SearchResult {
	name, ok := primaryName(it.Names)
	if !ok {
		name = UnknownName
	}
	return SearchResult{
		ID:            it.ID,
		Name:          name,
		YearPublished: attrOr(it.YearPublished, UnknownValue),
	}
}

// normalizeDetails applies the per-field fallback defaults. The id the
// caller asked for wins when the upstream omits its own.
func normalizeDetails(it xmlItem, requestedID int) GameDetails {
	id := it.ID
	if id == 0 {
		id = requestedID
	}

	name, ok := primaryName(it.Names)
	if !ok {
		name = UnknownName
	}

	rating := NotAvailable
	rank := NotAvailable
	if it.Statistics != nil {
		rating = attrOr(it.Statistics.Ratings.Average, NotAvailable)
		if len(it.Statistics.Ratings.Ranks) > 0 && it.Statistics.Ratings.Ranks[0].Value != "" {
			rank = it.Statistics.Ratings.Ranks[0].Value
		}
	}

	return GameDetails{
		ID:            id,
		Name:          name,
		YearPublished: attrOr(it.YearPublished, UnknownYear),
		MinPlayers:    attrOr(it.MinPlayers, UnknownValue),
		MaxPlayers:    attrOr(it.MaxPlayers, UnknownValue),
		PlayingTime:   attrOr(it.PlayingTime, UnknownValue),
		AverageRating: rating,
		Rank:          rank,
		Description:   it.Description,
		Link:          fmt.Sprintf(gameLinkStub, id),
		Image:         it.Image,
	}
}

func gameKey(id int) string {
	return "game:details:" + strconv.Itoa(id)
}
