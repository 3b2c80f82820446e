package dynamo

import (
	"github.com/Bilal292/livedraw/models"
)

type dynamoUser struct {
	PK            string `dynamodbav:"PK"`
	SK            string `dynamodbav:"SK"`
	Id            string `dynamodbav:"Id"`
	Provider      string `dynamodbav:"Provider"`
	ProviderId    string `dynamodbav:"ProviderId"`
	Username      string `dynamodbav:"Username"`
	Created       int64  `dynamodbav:"Created"`
	Ink           int    `dynamodbav:"Ink"`
	LastClaimTime int64  `dynamodbav:"LastClaimTime"`
}

func userPK(provider string, providerId string) string {
	return "USER#" + provider + "#" + providerId
}

// Map domain User -> Dynamo
func userToDynamo(u models.User) dynamoUser {
	return dynamoUser{
		PK:            userPK(u.Provider, u.ProviderId),
		SK:            "PROFILE",
		Id:            u.Id,
		Provider:      u.Provider,
		ProviderId:    u.ProviderId,
		Username:      u.Username,
		Created:       u.Created,
		Ink:           u.Ink,
		LastClaimTime: u.LastClaimTime,
	}
}

// Map Dynamo -> domain User
func userFromDynamo(du dynamoUser) models.User {
	return models.User{
		Id:            du.Id,
		Username:      du.Username,
		Provider:      du.Provider,
		ProviderId:    du.ProviderId,
		Created:       du.Created,
		Ink:           du.Ink,
		LastClaimTime: du.LastClaimTime,
	}
}

// All drawings share one partition; the UUIDv7 sort key keeps them in
// submission order.
const drawingPK = "DRAWING"

type dynamoDrawing struct {
	PK   string `dynamodbav:"PK"`
	SK   string `dynamodbav:"SK"`
	Data []byte `dynamodbav:"Data"`
}

func drawingToDynamo(d models.Drawing) dynamoDrawing {
	return dynamoDrawing{
		PK:   drawingPK,
		SK:   d.Id,
		Data: d.Data,
	}
}

func drawingFromDynamo(dd dynamoDrawing) models.Drawing {
	return models.Drawing{
		Id:   dd.SK,
		Data: dd.Data,
	}
}
