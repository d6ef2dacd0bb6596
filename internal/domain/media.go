package domain

import (
	"fmt"
	"strings"
)

type MediaType string

const (
	MediaTypeAnime MediaType = "ANIME"
	MediaTypeManga MediaType = "MANGA"
)

func ParseMediaType(raw string) (MediaType, error) {
	switch MediaType(strings.ToUpper(strings.TrimSpace(raw))) {
	case MediaTypeAnime:
		return MediaTypeAnime, nil
	case MediaTypeManga:
		return MediaTypeManga, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMediaType, raw)
	}
}

type Season string

const (
	SeasonWinter Season = "WINTER"
	SeasonSpring Season = "SPRING"
	SeasonSummer Season = "SUMMER"
	SeasonFall   Season = "FALL"
)

func ParseSeason(raw string) (Season, error) {
	season := Season(strings.ToUpper(strings.TrimSpace(raw)))
	switch season {
	case SeasonWinter, SeasonSpring, SeasonSummer, SeasonFall:
		return season, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSeason, raw)
	}
}

// MediaRef identifies the item an aggregation runs against.
type MediaRef struct {
	ID   int
	Type MediaType
}

type MediaTitle struct {
	Romaji  string
	English string
	Native  string
}

// Preferred returns the English title, falling back to romaji then native.
func (t MediaTitle) Preferred() string {
	switch {
	case t.English != "":
		return t.English
	case t.Romaji != "":
		return t.Romaji
	default:
		return t.Native
	}
}

type Media struct {
	ID          int
	Type        MediaType
	Title       MediaTitle
	Description string
	SiteURL     string
	CoverImage  string
	BannerImage string
	Format      string
	Status      string
	Season      Season
	SeasonYear  int
	MeanScore   int
	Popularity  int
	Favourites  int
	Episodes    int
	Duration    int
	Chapters    int
	Volumes     int
	Genres      []string
}

func (m Media) Ref() MediaRef {
	return MediaRef{ID: m.ID, Type: m.Type}
}

type CharacterName struct {
	Full        string
	Native      string
	Alternative []string
}

type CharacterAppearance struct {
	Title   MediaTitle
	SiteURL string
	Role    string
}

type Character struct {
	ID          int
	Name        CharacterName
	Description string
	SiteURL     string
	Image       string
	Favourites  int
	Appearances []CharacterAppearance
}

// DisplayName returns the full name, falling back to the native one.
func (c Character) DisplayName() string {
	if c.Name.Full != "" {
		return c.Name.Full
	}
	return c.Name.Native
}

type User struct {
	ID           int
	Name         string
	SiteURL      string
	Avatar       string
	BannerImage  string
	About        string
	ProfileColor string
	Statistics   UserStatistics
	Favourites   Favourites
}

type UserStatistics struct {
	Anime MediaStatistics
	Manga MediaStatistics
}

type MediaStatistics struct {
	Count           int
	MeanScore       float64
	MinutesWatched  int
	EpisodesWatched int
	ChaptersRead    int
	VolumesRead     int
	// Formats and Genres are ordered by count, most frequent first.
	Formats []string
	Genres  []string
}

// FavouriteRef is one favourited entity of any kind.
type FavouriteRef struct {
	ID      int
	Name    string
	SiteURL string
}

type Favourites struct {
	Anime      []FavouriteRef
	Manga      []FavouriteRef
	Characters []FavouriteRef
	Staff      []FavouriteRef
	Studios    []FavouriteRef
}

// TopEntry is one scored list entry in a user's ranking.
type TopEntry struct {
	Media Media
	Score int
}
