// Package analytics строит данные для графиков аналитики.
package analytics

import (
	"sort"
	"time"

	"github.com/RoGogDBD/honeypot-dashboard/internal/geo"
	models "github.com/RoGogDBD/honeypot-dashboard/internal/model"
)

// TopCountries - число стран в графике до корзины Other.
const TopCountries = 7

// OtherLabel - метка корзины для остальных стран.
const OtherLabel = "Other"

// Dataset - один набор значений графика.
type Dataset struct {
	Data []int `json:"data"`
}

// Chart - ответ API графиков.
type Chart struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

func newChart(labels []string, data []int) Chart {
	return Chart{Labels: labels, Datasets: []Dataset{{Data: data}}}
}

// Frequency строит график по категориям в порядке labels.
// Отсутствующие категории заполняются нулями. Категории из counts, которых
// нет в labels (например, выведенная Brute Force со старыми записями),
// добавляются в конец, чтобы сумма совпадала с общим числом событий.
func Frequency(labels []string, counts map[string]int) Chart {
	out := append([]string(nil), labels...)
	out = append(out, extraLabels(labels, counts)...)

	data := make([]int, len(out))
	for i, l := range out {
		data[i] = counts[l]
	}
	return newChart(out, data)
}

// extraLabels возвращает категории с ненулевым счётчиком вне labels.
// Известные категории идут в порядке models.AllCategories, остальные по алфавиту.
func extraLabels(labels []string, counts map[string]int) []string {
	known := make(map[string]bool, len(labels))
	for _, l := range labels {
		known[l] = true
	}

	var extra, unknown []string
	for _, c := range models.AllCategories {
		if !known[c] && counts[c] > 0 {
			extra = append(extra, c)
		}
		known[c] = true
	}
	for c, n := range counts {
		if !known[c] && n > 0 {
			unknown = append(unknown, c)
		}
	}
	sort.Strings(unknown)
	return append(extra, unknown...)
}

// Trend строит помесячный график Jan..Dec.
func Trend(counts map[time.Month]int) Chart {
	labels := make([]string, 0, 12)
	data := make([]int, 0, 12)
	for m := time.January; m <= time.December; m++ {
		labels = append(labels, m.String()[:3])
		data = append(data, counts[m])
	}
	return newChart(labels, data)
}

// CountryCounts суммирует атаки по странам определённых адресов.
// Неизвестные адреса не учитываются.
func CountryCounts(bySource map[string]int, locations map[string]geo.Location) map[string]int {
	out := make(map[string]int)
	for addr, n := range bySource {
		loc, ok := locations[addr]
		if !ok || loc.Country == "" {
			continue
		}
		out[loc.Country] += n
	}
	return out
}

// ByCountry строит график из TopCountries стран с наибольшим числом атак.
//
// При равенстве страны упорядочиваются по имени. Корзина Other добавляется,
// только если стран больше TopCountries и остаток положителен.
func ByCountry(counts map[string]int) Chart {
	type entry struct {
		country string
		count   int
	}
	entries := make([]entry, 0, len(counts))
	total := 0
	for c, n := range counts {
		entries = append(entries, entry{c, n})
		total += n
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].country < entries[j].country
	})

	top := entries
	if len(top) > TopCountries {
		top = top[:TopCountries]
	}
	labels := make([]string, 0, len(top)+1)
	data := make([]int, 0, len(top)+1)
	sum := 0
	for _, e := range top {
		labels = append(labels, e.country)
		data = append(data, e.count)
		sum += e.count
	}
	if len(entries) > TopCountries && total-sum > 0 {
		labels = append(labels, OtherLabel)
		data = append(data, total-sum)
	}
	return newChart(labels, data)
}

// Point - точка на карте атак.
type Point struct {
	SourceAddress string  `json:"source_address"`
	Country       string  `json:"country"`
	CountryCode   string  `json:"country_code"`
	Lat           float64 `json:"lat"`
	Lon           float64 `json:"lon"`
	Count         int     `json:"count"`
}

// Locations возвращает точку на каждый определённый адрес,
// по убыванию числа атак.
func Locations(bySource map[string]int, locations map[string]geo.Location) []Point {
	out := make([]Point, 0, len(locations))
	for addr, n := range bySource {
		loc, ok := locations[addr]
		if !ok {
			continue
		}
		out = append(out, Point{
			SourceAddress: addr,
			Country:       loc.Country,
			CountryCode:   loc.CountryCode,
			Lat:           loc.Lat,
			Lon:           loc.Lon,
			Count:         n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].SourceAddress < out[j].SourceAddress
	})
	return out
}

// Sources возвращает адреса из bySource.
func Sources(bySource map[string]int) []string {
	out := make([]string, 0, len(bySource))
	for a := range bySource {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
