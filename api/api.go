package api

import (
	"context"
	"log"
	"net/http"

	"github.com/Bilal292/livedraw/api/rest"
	"github.com/Bilal292/livedraw/api/ws"
	"github.com/Bilal292/livedraw/cache"
	"github.com/Bilal292/livedraw/mq"
	"github.com/Bilal292/livedraw/service"
	"github.com/Bilal292/livedraw/store"
	"github.com/Bilal292/livedraw/worker"
	"golang.org/x/oauth2"
)

type LivedrawAPI struct {
	restHandler *rest.Handler
	wsHandler   *ws.Handler
	shutdownCtx context.Context
}

func NewLivedrawAPI(
	livedrawStore store.LivedrawStore,
	topUpQueue mq.MessageQueue,
	livedrawCache cache.LivedrawCache,
	oauthConfigs map[string]*oauth2.Config,
	jwtSecret []byte,
	shutdownCtx context.Context,
) (*LivedrawAPI, error) {
	wsHub := ws.NewHub(livedrawCache)
	err := wsHub.InitSubscription(shutdownCtx)
	if err != nil {
		log.Printf("Failed to start WS Hub subscription: %v", err)
		return &LivedrawAPI{}, err
	}

	inkBatcher := worker.NewInkBatcher(livedrawStore, 60000)
	go inkBatcher.Run(shutdownCtx)

	svc, err := service.NewService(
		livedrawStore,
		livedrawCache,
		topUpQueue,
		inkBatcher,
		oauthConfigs,
		jwtSecret,
	)
	if err != nil {
		log.Printf("Failed to create service: %v", err)
		return &LivedrawAPI{}, err
	}

	topUpConsumer := worker.NewTopUpConsumer(topUpQueue, svc.Ledger)
	go topUpConsumer.Run(shutdownCtx)

	restHandler := rest.NewHandler(svc)
	wsHandler := ws.NewHandler(svc, wsHub)

	return &LivedrawAPI{
		restHandler: restHandler,
		wsHandler:   wsHandler,
		shutdownCtx: shutdownCtx,
	}, nil
}

func (livedrawAPI *LivedrawAPI) RegisterRoutes(mux *http.ServeMux, requiredOrigin string) {
	// Health check endpoint (no auth required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("/login", livedrawAPI.restHandler.HandleLogin)
	mux.HandleFunc("/me", livedrawAPI.restHandler.HandleMe)
	mux.HandleFunc("/claim-ink", livedrawAPI.restHandler.HandleClaimInk)
	mux.HandleFunc("/drawing-data-chunks", livedrawAPI.restHandler.HandleDrawingChunks)

	wsUpgrader := livedrawAPI.wsHandler.NewWsUpgrader(requiredOrigin)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		livedrawAPI.wsHandler.ServeWS(wsUpgrader, w, r, livedrawAPI.shutdownCtx)
	})
}
