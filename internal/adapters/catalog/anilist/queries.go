package anilist

const titleFields = `title { romaji english native }`

const mediaFields = `
fragment mediaFields on Media {
  id
  type
  siteUrl
  description
  ` + titleFields + `
  coverImage { extraLarge }
  bannerImage
  format
  status
  season
  seasonYear
  meanScore
  popularity
  favourites
  episodes
  duration
  chapters
  volumes
  genres
}`

const userFields = `
fragment userFields on User {
  id
  name
  siteUrl
  about
  bannerImage
  avatar { large }
  options { profileColor }
  statistics {
    anime {
      count
      meanScore
      minutesWatched
      episodesWatched
      formats(limit: 1, sort: COUNT_DESC) { format }
      genres(limit: 5, sort: COUNT_DESC) { genre }
    }
    manga {
      count
      meanScore
      chaptersRead
      volumesRead
      formats(limit: 1, sort: COUNT_DESC) { format }
      genres(limit: 5, sort: COUNT_DESC) { genre }
    }
  }
  favourites {
    anime { nodes { id siteUrl ` + titleFields + ` } }
    manga { nodes { id siteUrl ` + titleFields + ` } }
    characters { nodes { id siteUrl name { full native } } }
    staff { nodes { id siteUrl name { full native } } }
    studios { nodes { id siteUrl name } }
  }
}`

const characterFields = `
fragment characterFields on Character {
  id
  siteUrl
  description
  favourites
  image { large }
  name { full native alternative }
  media(perPage: 25, sort: POPULARITY_DESC) {
    edges {
      characterRole
      node { siteUrl ` + titleFields + ` }
    }
  }
}`

const queryUserByID = `
query ($id: Int) {
  User(id: $id) { ...userFields }
}` + userFields

const queryUserByName = `
query ($search: String) {
  User(search: $search) { ...userFields }
}` + userFields

const queryMediaByID = `
query ($id: Int, $type: MediaType) {
  Media(id: $id, type: $type) { ...mediaFields }
}` + mediaFields

const queryMediaByName = `
query ($search: String, $type: MediaType) {
  Media(search: $search, type: $type) { ...mediaFields }
}` + mediaFields

const queryCharacterByID = `
query ($id: Int) {
  Character(id: $id) { ...characterFields }
}` + characterFields

const queryCharacterByName = `
query ($search: String) {
  Character(search: $search) { ...characterFields }
}` + characterFields

const querySearchMedia = `
query ($search: String, $type: MediaType, $page: Int, $perPage: Int) {
  Page(page: $page, perPage: $perPage) {
    media(search: $search, type: $type) { id type siteUrl ` + titleFields + ` }
  }
}`

const querySearchCharacters = `
query ($search: String, $page: Int, $perPage: Int) {
  Page(page: $page, perPage: $perPage) {
    characters(search: $search) { id siteUrl name { full native } }
  }
}`

const querySearchUsers = `
query ($search: String, $page: Int, $perPage: Int) {
  Page(page: $page, perPage: $perPage) {
    users(search: $search) { id name siteUrl }
  }
}`

const queryListEntry = `
query ($userId: Int, $mediaId: Int) {
  MediaList(userId: $userId, mediaId: $mediaId) {
    status
    score(format: POINT_100)
    progress
    notes
  }
}`

const querySeasonal = `
query ($season: MediaSeason, $year: Int, $page: Int, $perPage: Int) {
  Page(page: $page, perPage: $perPage) {
    media(season: $season, seasonYear: $year, type: ANIME, sort: POPULARITY_DESC) {
      id type siteUrl ` + titleFields + `
    }
  }
}`

const queryTopMedia = `
query ($userId: Int, $page: Int, $perPage: Int) {
  Page(page: $page, perPage: $perPage) {
    mediaList(userId: $userId, sort: SCORE_DESC) {
      score(format: POINT_100)
      media { id type siteUrl ` + titleFields + ` }
    }
  }
}`
