package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/fenxiao-api/internal/constants"
	"github.com/fenxiao-api/internal/models"
	"github.com/fenxiao-api/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newAttributionTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:attribution_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.SalesAccount{}, &models.HierarchyLink{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func TestAttributeExactCode(t *testing.T) {
	db := newAttributionTestDB(t)
	salesRepo := repository.NewSalesAccountRepository(db)
	attributor := NewOrderAttributor(salesRepo, repository.NewHierarchyLinkRepository(db))

	account := &models.SalesAccount{
		WechatName: "exact",
		Role:       constants.SalesRolePrimary,
		SalesCode:  "ABCD2345",
		Status:     constants.SalesStatusActive,
	}
	if err := salesRepo.Create(account); err != nil {
		t.Fatalf("create account failed: %v", err)
	}

	attribution, err := attributor.Attribute("ABCD2345")
	if err != nil {
		t.Fatalf("attribute failed: %v", err)
	}
	if attribution.Account.ID != account.ID {
		t.Fatalf("expected account %d, got %d", account.ID, attribution.Account.ID)
	}

	// 大小写混写的输入按大写格式解析
	attribution, err = attributor.Attribute(" abcd2345 ")
	if err != nil {
		t.Fatalf("attribute mixed case failed: %v", err)
	}
	if attribution.Account.ID != account.ID {
		t.Fatalf("expected account %d from lowercase input, got %d", account.ID, attribution.Account.ID)
	}
}

func TestAttributeLowercaseStoredCode(t *testing.T) {
	db := newAttributionTestDB(t)
	salesRepo := repository.NewSalesAccountRepository(db)
	attributor := NewOrderAttributor(salesRepo, repository.NewHierarchyLinkRepository(db))

	// 早期数据存在小写落库的编码
	account := &models.SalesAccount{
		WechatName: "legacy-lower",
		Role:       constants.SalesRoleIndependent,
		SalesCode:  "xyzw6789",
		Status:     constants.SalesStatusActive,
	}
	if err := salesRepo.Create(account); err != nil {
		t.Fatalf("create account failed: %v", err)
	}

	attribution, err := attributor.Attribute("XYZW6789")
	if err != nil {
		t.Fatalf("attribute lowercase stored code failed: %v", err)
	}
	if attribution.Account.ID != account.ID {
		t.Fatalf("expected account %d, got %d", account.ID, attribution.Account.ID)
	}
}

func TestAttributeLegacyPrefixedCode(t *testing.T) {
	db := newAttributionTestDB(t)
	salesRepo := repository.NewSalesAccountRepository(db)
	attributor := NewOrderAttributor(salesRepo, repository.NewHierarchyLinkRepository(db))

	account := &models.SalesAccount{
		WechatName: "legacy-prefix",
		Role:       constants.SalesRolePrimary,
		SalesCode:  "EFGH2345",
		Status:     constants.SalesStatusActive,
	}
	if err := salesRepo.Create(account); err != nil {
		t.Fatalf("create account failed: %v", err)
	}

	attribution, err := attributor.Attribute(constants.LegacySalesCodePrefix + "EFGH2345")
	if err != nil {
		t.Fatalf("attribute legacy prefixed code failed: %v", err)
	}
	if attribution.Account.ID != account.ID {
		t.Fatalf("expected account %d, got %d", account.ID, attribution.Account.ID)
	}
}

func TestAttributeUnknownCodeFailsClosed(t *testing.T) {
	db := newAttributionTestDB(t)
	attributor := NewOrderAttributor(
		repository.NewSalesAccountRepository(db),
		repository.NewHierarchyLinkRepository(db),
	)

	for _, code := range []string{"", "   ", "UNKNOWN1", constants.LegacySalesCodePrefix} {
		if _, err := attributor.Attribute(code); !errors.Is(err, ErrUnresolvedSalesCode) {
			t.Fatalf("expected ErrUnresolvedSalesCode for %q, got: %v", code, err)
		}
	}
}

func TestAttributeRemovedAccountRejected(t *testing.T) {
	db := newAttributionTestDB(t)
	salesRepo := repository.NewSalesAccountRepository(db)
	attributor := NewOrderAttributor(salesRepo, repository.NewHierarchyLinkRepository(db))

	account := &models.SalesAccount{
		WechatName: "removed",
		Role:       constants.SalesRolePrimary,
		SalesCode:  "REMD2345",
		Status:     constants.SalesStatusRemoved,
	}
	if err := salesRepo.Create(account); err != nil {
		t.Fatalf("create account failed: %v", err)
	}

	if _, err := attributor.Attribute("REMD2345"); !errors.Is(err, ErrUnresolvedSalesCode) {
		t.Fatalf("expected ErrUnresolvedSalesCode for removed account, got: %v", err)
	}
}

func TestAttributeSecondaryCarriesParent(t *testing.T) {
	db := newAttributionTestDB(t)
	salesRepo := repository.NewSalesAccountRepository(db)
	linkRepo := repository.NewHierarchyLinkRepository(db)
	registry := NewSalesRegistry(salesRepo, DefaultCommissionPolicy())
	graph := NewHierarchyGraph(salesRepo, linkRepo)
	attributor := NewOrderAttributor(salesRepo, linkRepo)

	primary, err := registry.Register(RegisterSalesInput{Role: constants.SalesRolePrimary, WechatName: "attr-p"})
	if err != nil {
		t.Fatalf("register primary failed: %v", err)
	}
	secondary, err := registry.Register(RegisterSalesInput{Role: constants.SalesRoleSecondary, WechatName: "attr-s"})
	if err != nil {
		t.Fatalf("register secondary failed: %v", err)
	}
	if _, err := graph.Attach(primary.ID, secondary.ID, nil); err != nil {
		t.Fatalf("attach failed: %v", err)
	}

	attribution, err := attributor.Attribute(secondary.SalesCode)
	if err != nil {
		t.Fatalf("attribute secondary failed: %v", err)
	}
	if attribution.Parent == nil || attribution.Parent.ID != primary.ID {
		t.Fatalf("expected parent %d, got %+v", primary.ID, attribution.Parent)
	}
	if attribution.ParentLink == nil {
		t.Fatalf("expected parent link to be populated")
	}

	// 解除挂靠后归因为无上级二级销售
	if err := graph.Detach(primary.ID, secondary.ID, "admin", ""); err != nil {
		t.Fatalf("detach failed: %v", err)
	}
	attribution, err = attributor.Attribute(strings.ToLower(secondary.SalesCode))
	if err != nil {
		t.Fatalf("attribute after detach failed: %v", err)
	}
	if attribution.Parent != nil {
		t.Fatalf("expected no parent after detach, got %+v", attribution.Parent)
	}
}
