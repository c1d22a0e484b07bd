// Package geo определяет страну и координаты адресов источников атак.
package geo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// BatchLimit - максимальное число адресов в одном запросе к ip-api.
const BatchLimit = 100

const batchFields = "query,status,country,countryCode,lat,lon"

// ErrLookupStatus возвращается, если сервис геолокации ответил ошибкой.
var ErrLookupStatus = errors.New("geolocation service returned error status")

// Location - результат геолокации одного адреса.
type Location struct {
	Country     string  `json:"country"`
	CountryCode string  `json:"country_code"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// Lookuper выполняет один пакетный запрос геолокации.
//
// Возвращает только успешно определённые адреса.
type Lookuper interface {
	Lookup(ctx context.Context, addrs []string) (map[string]Location, error)
}

// batchEntry - элемент ответа ip-api /batch.
type batchEntry struct {
	Query       string  `json:"query"`
	Status      string  `json:"status"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// IPAPIClient - клиент пакетного API ip-api.com.
type IPAPIClient struct {
	client  *resty.Client
	baseURL string
}

// NewIPAPIClient создаёт клиента с таймаутом 10 секунд и двумя повторами.
func NewIPAPIClient(baseURL string) *IPAPIClient {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)
	return &IPAPIClient{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Lookup отправляет адреса одним запросом POST /batch.
// Записи со статусом, отличным от success, пропускаются.
func (c *IPAPIClient) Lookup(ctx context.Context, addrs []string) (map[string]Location, error) {
	if len(addrs) == 0 {
		return map[string]Location{}, nil
	}
	if len(addrs) > BatchLimit {
		return nil, fmt.Errorf("batch of %d addresses exceeds limit %d", len(addrs), BatchLimit)
	}

	var entries []batchEntry
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("fields", batchFields).
		SetBody(addrs).
		SetResult(&entries).
		Post(c.baseURL + "/batch")
	if err != nil {
		return nil, fmt.Errorf("failed to query geolocation: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %d", ErrLookupStatus, resp.StatusCode())
	}

	out := make(map[string]Location, len(entries))
	for _, e := range entries {
		if e.Status != "success" || e.Query == "" {
			continue
		}
		out[e.Query] = Location{
			Country:     e.Country,
			CountryCode: e.CountryCode,
			Lat:         e.Lat,
			Lon:         e.Lon,
		}
	}
	return out, nil
}
