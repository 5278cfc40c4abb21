package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_ValoresPorDefecto(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "FAC", cfg.Billing.Prefix)
	assert.Equal(t, 4, cfg.Billing.Workers)
	assert.Equal(t, 30*time.Second, cfg.Billing.ClientTimeout)
	assert.True(t, cfg.Billing.InstallationFee.IsZero())
	assert.True(t, cfg.Billing.InstallationAppliesIVA)
	assert.Equal(t, "19", cfg.Billing.IVAPercentage.String())
	assert.Equal(t, "2", cfg.Billing.InterestPercentage.String())
	assert.Equal(t, 15, cfg.Billing.DueDays)
	assert.Equal(t, 30, cfg.Billing.OverdueGraceDays)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestFromViper_SobrescribeDesdeEntorno(t *testing.T) {
	v := viper.New()
	v.Set("BILLING_PREFIX", "ISP")
	v.Set("BILLING_WORKERS", "0")
	v.Set("BILLING_INSTALLATION_FEE", "50000")
	v.Set("BILLING_INSTALLATION_APPLIES_IVA", "false")
	v.Set("BILLING_CLIENT_TIMEOUT_SECONDS", "5")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "ISP", cfg.Billing.Prefix)
	assert.Equal(t, 1, cfg.Billing.Workers, "workers < 1 se normaliza a 1")
	assert.Equal(t, "50000", cfg.Billing.InstallationFee.String())
	assert.False(t, cfg.Billing.InstallationAppliesIVA)
	assert.Equal(t, 5*time.Second, cfg.Billing.ClientTimeout)
}

func TestFromViper_PorcentajeNoNumerico(t *testing.T) {
	v := viper.New()
	v.Set("BILLING_IVA_PERCENTAGE", "diecinueve")

	_, err := fromViper(v)
	assert.ErrorContains(t, err, "BILLING_IVA_PERCENTAGE")
}

func TestBillingValidate(t *testing.T) {
	ok := BillingConfig{Prefix: "FAC", IVAPercentage: decimal.NewFromInt(19), InterestPercentage: decimal.NewFromInt(2)}
	require.NoError(t, ok.Validate())

	bad := ok
	bad.Prefix = " "
	bad.IVAPercentage = decimal.NewFromInt(120)
	bad.InstallationFee = decimal.NewFromInt(-1)
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BILLING_PREFIX")
	assert.Contains(t, err.Error(), "BILLING_IVA_PERCENTAGE")
	assert.Contains(t, err.Error(), "BILLING_INSTALLATION_FEE")
}

func TestDSN_EscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "isp", Password: "p@ss:w/rd", DBName: "isp", SSLMode: "disable"}
	assert.Equal(t, "postgres://isp:p%40ss%3Aw%2Frd@db:5432/isp?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.ConnectionString())
}

func TestFromViper_NITEmisor(t *testing.T) {
	v := viper.New()
	v.Set("ISSUER_NIT", "800197268-4")
	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "800197268-4", cfg.Issuer.NIT)

	v.Set("ISSUER_NIT", "800197268-5")
	_, err = fromViper(v)
	assert.ErrorContains(t, err, "ISSUER_NIT")
}

func TestFromViper_NivelYFormatoDeLog(t *testing.T) {
	v := viper.New()
	v.Set("LOG_LEVEL", "debug")
	v.Set("LOG_FORMAT", "json")
	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "json", cfg.App.LogFormat)

	v = viper.New()
	v.Set("LOG_LEVEL", "verbose")
	_, err = fromViper(v)
	assert.ErrorContains(t, err, "verbose")

	v = viper.New()
	v.Set("LOG_FORMAT", "xml")
	_, err = fromViper(v)
	assert.ErrorContains(t, err, "xml")
}
