package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gofrs/uuid/v5"

	"github.com/Bilal292/livedraw/models"
)

type DynamoLivedrawStore struct {
	client    *dynamodb.Client
	tableName string
}

func NewDynamoLivedrawStore(ctx context.Context, devMode bool, dynamodbEndpoint string, tableName string) (*DynamoLivedrawStore, error) {
	client, err := newDynamoDBClient(context.Background(), devMode, dynamodbEndpoint)
	if err != nil {
		return nil, err
	}

	tables, err := getTables(client, ctx)
	if err != nil {
		return nil, err
	}

	foundTable := false
	for _, table := range tables {
		if table == tableName {
			foundTable = true
			break
		}
	}
	if !foundTable {
		return nil, fmt.Errorf("given table name '%s' not found in dynamodb", tableName)
	}

	return &DynamoLivedrawStore{client: client, tableName: tableName}, nil
}

func (dynamoStore *DynamoLivedrawStore) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	userId, err := uuid.NewV4()
	if err != nil {
		return models.User{}, err
	}
	user.Id = userId.String()

	du := userToDynamo(user)
	du.Created = time.Now().Unix()
	du, _, err = ensureItem(dynamoStore, ctx, du)
	if err != nil {
		return models.User{}, err
	}

	user = userFromDynamo(du)
	return user, nil
}

func (dynamoStore *DynamoLivedrawStore) GetUser(ctx context.Context, provider string, providerId string) (models.User, error) {
	du, err := getItem[dynamoUser](dynamoStore, ctx, userPK(provider, providerId), "PROFILE")
	if err != nil {
		return models.User{}, err
	}

	return userFromDynamo(du), nil
}

func (dynamoStore *DynamoLivedrawStore) AddInk(ctx context.Context, provider string, providerId string, amount int) error {
	return addToCounter(dynamoStore, ctx, userPK(provider, providerId), "PROFILE", "Ink", amount)
}

func (dynamoStore *DynamoLivedrawStore) ClaimInk(ctx context.Context, provider string, providerId string, grant int, claimTime int64) error {
	return addToCounterAndSet(dynamoStore, ctx, userPK(provider, providerId), "PROFILE", "Ink", grant, "LastClaimTime", claimTime)
}

func (dynamoStore *DynamoLivedrawStore) CreateDrawing(ctx context.Context, drawing models.Drawing) error {
	return putItem(dynamoStore, ctx, drawingToDynamo(drawing))
}

func (dynamoStore *DynamoLivedrawStore) GetDrawingsPage(ctx context.Context, page int, pageSize int) ([]models.Drawing, bool, error) {
	if page < 1 {
		page = 1
	}

	// Fetch one extra item past the window to learn whether another page exists
	offset := (page - 1) * pageSize
	dynamoDrawings, err := queryWindowByPK[dynamoDrawing](dynamoStore, ctx, drawingPK, offset, pageSize+1)
	if err != nil {
		return nil, false, err
	}

	hasNext := len(dynamoDrawings) > pageSize
	if hasNext {
		dynamoDrawings = dynamoDrawings[:pageSize]
	}

	drawings := make([]models.Drawing, 0, len(dynamoDrawings))
	for _, dd := range dynamoDrawings {
		drawings = append(drawings, drawingFromDynamo(dd))
	}

	return drawings, hasNext, nil
}
