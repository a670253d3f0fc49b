// Package report renders finished simulation runs into human-readable
// Markdown using Liquid templates, so operators can tweak the layout
// without recompiling.
package report

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/osteele/liquid"

	"github.com/20lawsobk/maxbooster7.5-sub011/internal/sim"
)

// Renderer renders result reports. Parsed templates are cached, so one
// renderer can serve every report request of a server process.
type Renderer struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewRenderer creates a renderer with the report filters registered.
func NewRenderer() *Renderer {
	r := &Renderer{engine: liquid.NewEngine()}
	r.registerFilters()
	return r
}

// registerFilters adds the number-formatting filters the report template
// leans on.
func (r *Renderer) registerFilters() {
	// Money: {{ mrr | money }} -> $12,345.67
	r.engine.RegisterFilter("money", func(value interface{}) string {
		f, ok := toFloat(value)
		if !ok {
			return fmt.Sprintf("%v", value)
		}
		return "$" + commaGroups(fmt.Sprintf("%.2f", f))
	})

	// Thousands separators: {{ count | comma }} -> 1,234,567
	r.engine.RegisterFilter("comma", func(value interface{}) string {
		f, ok := toFloat(value)
		if !ok {
			return fmt.Sprintf("%v", value)
		}
		return commaGroups(fmt.Sprintf("%.0f", f))
	})

	// Percentage: {{ growth | pct }} -> 42.3%
	r.engine.RegisterFilter("pct", func(value interface{}) string {
		f, ok := toFloat(value)
		if !ok {
			return fmt.Sprintf("%v", value)
		}
		return fmt.Sprintf("%.1f%%", f)
	})

	// Two-decimal ratio: {{ ltv_to_cac | ratio }} -> 3.47
	r.engine.RegisterFilter("ratio", func(value interface{}) string {
		f, ok := toFloat(value)
		if !ok {
			return fmt.Sprintf("%v", value)
		}
		return fmt.Sprintf("%.2f", f)
	})
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// commaGroups inserts thousands separators into a decimal number string,
// leaving any fraction untouched.
func commaGroups(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}

	out := b.String() + frac
	if neg {
		return "-" + out
	}
	return out
}

// Render parses (with caching) and renders a template against bindings.
func (r *Renderer) Render(cacheKey, templateStr string, ctx map[string]interface{}) (string, error) {
	if cacheKey != "" {
		if cached, ok := r.cache.Load(cacheKey); ok {
			return cached.(*liquid.Template).RenderString(ctx)
		}
	}

	tpl, err := r.engine.ParseString(templateStr)
	if err != nil {
		return "", fmt.Errorf("parsing report template: %w", err)
	}
	if cacheKey != "" {
		r.cache.Store(cacheKey, tpl)
	}

	out, err := tpl.RenderString(ctx)
	if err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return out, nil
}

// Markdown renders the standard end-of-run report for a result.
func (r *Renderer) Markdown(res *sim.SimulationResult) (string, error) {
	return r.Render("markdown_report", markdownTemplate, bindings(res))
}

// Filename is the download name the control API attaches to a rendered
// report.
func Filename(runID string) string {
	return fmt.Sprintf("simulation_report_%s.md", runID)
}

func statusIcon(status string) string {
	switch status {
	case "pass":
		return "✅"
	case "warn":
		return "⚠️"
	default:
		return "❌"
	}
}

// bindings flattens a result into plain maps and slices; the template never
// has to reach into Go structs.
func bindings(res *sim.SimulationResult) map[string]interface{} {
	m := res.FinalMetrics

	checks := make([]map[string]interface{}, 0, len(res.SystemTests.Checks))
	for _, c := range res.SystemTests.Checks {
		checks = append(checks, map[string]interface{}{
			"name":   c.Name,
			"status": c.Status,
			"icon":   statusIcon(c.Status),
			"detail": c.Detail,
		})
	}

	tiers := make([]map[string]interface{}, 0, len(sim.AllTiers))
	for _, t := range sim.AllTiers {
		tiers = append(tiers, map[string]interface{}{
			"name":  string(t),
			"count": m.Users.ByTier[t],
		})
	}

	recommendations := append([]string{}, res.Recommendations...)
	critical := append([]string{}, res.SystemTests.CriticalIssues...)

	period := res.Config.PeriodName
	if period == "" {
		period = fmt.Sprintf("%d days", res.Config.DaysToSimulate)
	}

	return map[string]interface{}{
		"run_id":         res.Config.RunID,
		"period":         period,
		"days":           res.SimulatedDays,
		"seed":           res.Seed,
		"completed":      res.Completed,
		"generated_at":   time.Now().UTC().Format(time.RFC1123),
		"real_duration":  res.RealDuration.Round(time.Millisecond).String(),
		"verdict":        res.Verdict(),
		"final_users":    m.Users.Total,
		"active_users":   m.Users.Active,
		"tiers":          tiers,
		"mrr":            m.Revenue.MRR,
		"arr":            m.Revenue.ARR,
		"lifetime_rev":   m.Revenue.Lifetime,
		"total_streams":  m.Streams.Total,
		"viral_releases": m.Streams.ViralReleases,
		"followers":      m.Social.TotalFollowers,
		"uptime":         m.Platform.Uptime,
		"error_rate":     fmt.Sprintf("%.4f", m.Platform.ErrorRate),
		"response_ms":    fmt.Sprintf("%.0f", m.Platform.ResponseTimeMs),
		"decisions":      m.Autonomous.DecisionsMade,
		"interventions":  m.Autonomous.InterventionsRequired,

		"growth_rate":      res.KPIs.UserGrowthRate,
		"revenue_growth":   res.KPIs.RevenueGrowthRate,
		"churn_rate":       res.KPIs.ChurnRate,
		"ltv":              res.KPIs.LTV,
		"cac":              res.KPIs.CAC,
		"ltv_to_cac":       res.KPIs.LTVToCAC,
		"viral_coef":       res.KPIs.ViralCoefficient,
		"nps":              res.KPIs.NPS,
		"auto_efficiency":  res.KPIs.AutonomousEfficiency,
		"total_signups":    res.TotalSignups,
		"total_churn":      res.TotalChurn,
		"checks":           checks,
		"checks_passed":    res.SystemTests.Passed,
		"checks_warned":    res.SystemTests.Warnings,
		"checks_failed":    res.SystemTests.Failed,
		"critical_issues":  critical,
		"recommendations":  recommendations,
		"snapshots_taken":  len(res.Snapshots),
		"events_retained":  len(res.Events),
	}
}

const markdownTemplate = `# Simulation Report — {{ run_id }}

**Period:** {{ period }} ({{ days }} simulated days)
**Seed:** {{ seed }} | **Completed:** {{ completed }} | **Wall time:** {{ real_duration }}
**Generated:** {{ generated_at }}

## Executive Summary

The run closed with **{{ final_users | comma }} artists** ({{ active_users | comma }} active in the
last simulated week), **{{ mrr | money }} MRR** ({{ arr | money }} ARR) and
**{{ total_streams | comma }} lifetime streams**, of which {{ viral_releases }} releases went viral.
User growth over the period was {{ growth_rate | pct }} with {{ churn_rate | pct }} lifetime churn;
{{ total_signups | comma }} artists signed up and {{ total_churn | comma }} left. The autopilot made
{{ decisions | comma }} decisions and required {{ interventions | comma }} human interventions.

## System Test Results

| Check | Status | Detail |
|-------|--------|--------|
{% for check in checks %}| {{ check.name }} | {{ check.icon }} {{ check.status }} | {{ check.detail }} |
{% endfor %}
**{{ checks_passed }} passed / {{ checks_warned }} warnings / {{ checks_failed }} failed**

## Key Performance Indicators

| KPI | Value |
|-----|-------|
| User growth | {{ growth_rate | pct }} |
| Revenue growth | {{ revenue_growth | pct }} |
| Churn | {{ churn_rate | pct }} |
| LTV | {{ ltv | money }} |
| CAC | {{ cac | money }} |
| LTV : CAC | {{ ltv_to_cac | ratio }} |
| Viral coefficient | {{ viral_coef | ratio }} |
| NPS | {{ nps | ratio }} |
| Uptime | {{ uptime | pct }} |
| Autonomous efficiency | {{ auto_efficiency | pct }} |

## Final Metrics

- Artists by tier:{% for tier in tiers %} {{ tier.name }} {{ tier.count | comma }};{% endfor %}
- Lifetime revenue: {{ lifetime_rev | money }}
- Social reach: {{ followers | comma }} followers
- Platform: {{ uptime | pct }} uptime, {{ error_rate }} error rate, {{ response_ms }}ms avg response
- History: {{ snapshots_taken }} snapshots, {{ events_retained }} events retained

## Critical Issues
{% if critical_issues.size == 0 %}
None recorded.
{% else %}{% for issue in critical_issues %}
- {{ issue }}{% endfor %}
{% endif %}

## Recommendations
{% if recommendations.size == 0 %}
1. All systems healthy — maintain the current growth and retention playbook.
{% else %}{% for rec in recommendations %}
{{ forloop.index }}. {{ rec }}{% endfor %}
{% endif %}

## Conclusion

{{ verdict }}

{% if completed %}The simulation ran to completion and the figures above reflect the full period.
{% else %}The run stopped before the configured horizon; treat the figures above as a partial read.
{% endif %}`
