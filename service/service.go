package service

import (
	"github.com/Bilal292/livedraw/cache"
	"github.com/Bilal292/livedraw/mq"
	"github.com/Bilal292/livedraw/store"
	"github.com/Bilal292/livedraw/worker"
	"golang.org/x/oauth2"
)

type Service struct {
	Store        store.LivedrawStore
	Cache        cache.LivedrawCache
	MQ           mq.MessageQueue
	Ledger       *InkLedger
	OAuthConfigs map[string]*oauth2.Config
	JWTSecret    []byte
}

func NewService(
	store store.LivedrawStore,
	cache cache.LivedrawCache,
	mq mq.MessageQueue,
	inkBatcher *worker.InkBatcher,
	oauthConfigs map[string]*oauth2.Config,
	jwtSecret []byte,
) (*Service, error) {
	oauthConfigs, err := addOauthEndpointsAndScopes(oauthConfigs)
	if err != nil {
		return nil, err
	}

	return &Service{
		Store:        store,
		Cache:        cache,
		MQ:           mq,
		Ledger:       NewInkLedger(store, inkBatcher),
		OAuthConfigs: oauthConfigs,
		JWTSecret:    jwtSecret,
	}, nil
}
