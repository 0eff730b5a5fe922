package app

import (
	"log"
	"math"

	"github.com/jandy1990/wwfm-platform-sub002/internal/taxonomy"
	"github.com/jandy1990/wwfm-platform-sub002/models"
)

const sourceTag = "ai_generated"

// buildDistributions turns normalized field values into per-field
// distribution records. Scalar fields get a single-entry record; the
// array field distributes across its reported values.
func buildDistributions(category string, fields map[string]string, arrays map[string][]string) map[string]models.DistributionRecord {
	out := make(map[string]models.DistributionRecord, len(fields)+len(arrays))

	for field, value := range fields {
		out[field] = models.DistributionRecord{
			Mode:       value,
			TotalCount: 1,
			Values: []models.DistributionValue{
				{Value: value, Count: 1, Percentage: 100, Source: sourceTag},
			},
		}
	}

	for field, values := range arrays {
		record := arrayDistribution(values)
		if err := record.Validate(taxonomy.MinDistinct(field)); err != nil {
			// A single-value "distribution" is degenerate; widen it
			// with a neutral entry rather than persisting it as-is.
			record = padDistribution(record)
			log.Printf("[Distributions] padded degenerate %s distribution for %s: %v", field, category, err)
		}
		out[field] = record
	}
	return out
}

// arrayDistribution gives each distinct reported value an equal share,
// with percentages adjusted so they sum to exactly 100.
func arrayDistribution(values []string) models.DistributionRecord {
	distinct := make([]string, 0, len(values))
	seen := map[string]bool{}
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		distinct = append(distinct, v)
	}

	record := models.DistributionRecord{TotalCount: len(distinct)}
	if len(distinct) == 0 {
		return record
	}
	record.Mode = distinct[0]

	share := math.Round(100.0/float64(len(distinct))*10) / 10
	total := 0.0
	for i, v := range distinct {
		pct := share
		if i == len(distinct)-1 {
			pct = math.Round((100.0-total)*10) / 10
		}
		total += pct
		record.Values = append(record.Values, models.DistributionValue{
			Value: v, Count: 1, Percentage: pct, Source: sourceTag,
		})
	}
	return record
}

// padDistribution widens a degenerate record with "None" (or "Other"
// when None is already the sole value) at a nominal share.
func padDistribution(record models.DistributionRecord) models.DistributionRecord {
	filler := "None"
	for _, v := range record.Values {
		if v.Value == filler {
			filler = "Other"
			break
		}
	}

	scaled := make([]models.DistributionValue, 0, len(record.Values)+1)
	remaining := 90.0
	for i, v := range record.Values {
		share := math.Round(remaining/float64(len(record.Values))*10) / 10
		if i == len(record.Values)-1 {
			share = remaining - share*float64(len(record.Values)-1)
			share = math.Round(share*10) / 10
		}
		v.Percentage = share
		scaled = append(scaled, v)
	}
	scaled = append(scaled, models.DistributionValue{
		Value: filler, Count: 1, Percentage: 10, Source: sourceTag,
	})

	record.Values = scaled
	record.TotalCount = len(scaled)
	if record.Mode == "" {
		record.Mode = scaled[0].Value
	}
	return record
}
