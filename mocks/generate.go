package mocks

//go:generate mockgen -destination=./mock_fetcher.go -package=mocks github.com/rxtech-lab/argo-moex/pkg/marketdata/provider Fetcher
//go:generate mockgen -destination=./mock_writer.go -package=mocks github.com/rxtech-lab/argo-moex/pkg/marketdata/writer MarketDataWriter
//go:generate mockgen -destination=./mock_provider.go -package=mocks github.com/rxtech-lab/argo-moex/pkg/marketdata/provider Provider
