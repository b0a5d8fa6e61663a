package metrics

import "testing"

func TestEvaluateAlertsToolErrorRate(t *testing.T) {
	alerts := EvaluateAlerts(Snapshot{ToolExecutions: 10, ToolErrors: 3})
	if len(alerts) != 1 || alerts[0].Name != "tool_error_rate" {
		t.Errorf("EvaluateAlerts() = %+v, want one tool_error_rate alert", alerts)
	}
}

func TestEvaluateAlertsClean(t *testing.T) {
	alerts := EvaluateAlerts(Snapshot{ToolExecutions: 100, ToolErrors: 1, LLMCalls: 50, LLMErrors: 1})
	if len(alerts) != 0 {
		t.Errorf("EvaluateAlerts() = %+v, want no alerts", alerts)
	}
}

func TestEvaluateAlertsMemoryBacklog(t *testing.T) {
	alerts := EvaluateAlerts(Snapshot{MemoryDropped: 51})
	if len(alerts) != 1 || alerts[0].Name != "memory_drop_backlog" {
		t.Errorf("EvaluateAlerts() = %+v, want memory_drop_backlog alert", alerts)
	}
}
