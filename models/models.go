package models

type User struct {
	Id         string
	Username   string
	Provider   string
	ProviderId string
	Created    int64
	Ink        int
	// Unix seconds of the last successful ink claim, 0 if never claimed
	LastClaimTime int64
}

// Drawing is one submitted stroke. The payload is opaque to the backend:
// clients draw it, the server only stores and rebroadcasts it.
// Id is a UUIDv7, so sort-key order equals submission order.
type Drawing struct {
	Id   string
	Data []byte
}
