package almoner

const Version = "v0.4.2"
