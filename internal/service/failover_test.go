package service

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/GTDGit/gtd_payments/internal/models"
	"github.com/GTDGit/gtd_payments/internal/utils"
)

func activeConfig(t models.GatewayType, status models.GatewayStatus) *models.PaymentGatewayConfig {
	return &models.PaymentGatewayConfig{GatewayType: t, Status: status}
}

func TestBuildAttemptQueue(t *testing.T) {
	registered := models.GatewayFallbackOrder

	tests := []struct {
		name     string
		selected models.GatewayType
		backup   models.GatewayType
		active   []*models.PaymentGatewayConfig
		want     []models.GatewayType
	}{
		{
			name:     "selected then backup then active then registered",
			selected: models.GatewayAuthorizeNet,
			backup:   models.GatewayCyberSource,
			active: []*models.PaymentGatewayConfig{
				activeConfig(models.GatewayPayPal, models.GatewayStatusActive),
			},
			want: []models.GatewayType{
				models.GatewayAuthorizeNet,
				models.GatewayCyberSource,
				models.GatewayPayPal,
				models.GatewayStripe,
			},
		},
		{
			name:     "duplicates appear once",
			selected: models.GatewayStripe,
			backup:   models.GatewayStripe,
			active: []*models.PaymentGatewayConfig{
				activeConfig(models.GatewayStripe, models.GatewayStatusActive),
				activeConfig(models.GatewayPayPal, models.GatewayStatusTesting),
			},
			want: registered,
		},
		{
			name:     "inactive configs are not promoted",
			selected: models.GatewayPayPal,
			active: []*models.PaymentGatewayConfig{
				activeConfig(models.GatewayCyberSource, models.GatewayStatusInactive),
				activeConfig(models.GatewayAuthorizeNet, models.GatewayStatusActive),
			},
			want: []models.GatewayType{
				models.GatewayPayPal,
				models.GatewayAuthorizeNet,
				models.GatewayStripe,
				models.GatewayCyberSource,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildAttemptQueue(tt.selected, tt.backup, tt.active, registered)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("queue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextGateway(t *testing.T) {
	queue := []models.GatewayType{models.GatewayStripe, models.GatewayPayPal}

	got, ok := nextGateway(queue, map[models.GatewayType]bool{models.GatewayStripe: true})
	if !ok || got != models.GatewayPayPal {
		t.Errorf("next = %q, %v", got, ok)
	}

	_, ok = nextGateway(queue, map[models.GatewayType]bool{models.GatewayStripe: true, models.GatewayPayPal: true})
	if ok {
		t.Error("expected no gateway once all are attempted")
	}
}

func TestFailoverStates(t *testing.T) {
	fo := newFailover([]models.GatewayType{models.GatewayStripe, models.GatewayPayPal, models.GatewayCyberSource})

	gw, ok := fo.next()
	if !ok || gw != models.GatewayStripe || fo.state != stateAttempting {
		t.Fatalf("first next = %q %v state %s", gw, ok, fo.state)
	}
	fo.fail(errors.New("timeout"))
	if fo.state != stateSelecting {
		t.Fatalf("state after fail = %s", fo.state)
	}

	gw, _ = fo.next()
	if gw != models.GatewayPayPal {
		t.Fatalf("second next = %q", gw)
	}
	fo.skip()

	gw, _ = fo.next()
	fo.fail(errors.New("card 4111 1111 1111 1111 rejected upstream"))

	if _, ok := fo.next(); ok {
		t.Fatal("expected exhaustion")
	}
	if fo.state != stateExhausted {
		t.Fatalf("state = %s", fo.state)
	}

	err := fo.err()
	if !reflect.DeepEqual(err.Attempted, []models.GatewayType{models.GatewayStripe, gw}) {
		t.Errorf("attempted = %v", err.Attempted)
	}
	if !errors.Is(err, utils.ErrGatewaysExhausted) {
		t.Error("ExhaustedError should match ErrGatewaysExhausted")
	}
	if strings.Contains(err.Error(), "4111 1111") {
		t.Errorf("error leaks PAN: %s", err.Error())
	}
}

func TestFailoverNextAfterSuccess(t *testing.T) {
	fo := newFailover([]models.GatewayType{models.GatewayStripe, models.GatewayPayPal})
	fo.next()
	fo.succeed()
	if _, ok := fo.next(); ok {
		t.Error("next must not advance after success")
	}
	if fo.state.String() != "succeeded" {
		t.Errorf("state = %s", fo.state)
	}
}
