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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newHierarchyTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:hierarchy_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.SalesAccount{}, &models.HierarchyLink{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

type hierarchyTestEnv struct {
	registry *SalesRegistry
	graph    *HierarchyGraph
}

func newHierarchyTestEnv(t *testing.T) *hierarchyTestEnv {
	t.Helper()
	db := newHierarchyTestDB(t)
	salesRepo := repository.NewSalesAccountRepository(db)
	linkRepo := repository.NewHierarchyLinkRepository(db)
	return &hierarchyTestEnv{
		registry: NewSalesRegistry(salesRepo, DefaultCommissionPolicy()),
		graph:    NewHierarchyGraph(salesRepo, linkRepo),
	}
}

func (env *hierarchyTestEnv) mustRegister(t *testing.T, role, name string) *models.SalesAccount {
	t.Helper()
	account, err := env.registry.Register(RegisterSalesInput{Role: role, WechatName: name})
	if err != nil {
		t.Fatalf("register %s failed: %v", name, err)
	}
	return account
}

func TestAttachRejectsDuplicatePair(t *testing.T) {
	env := newHierarchyTestEnv(t)
	primary := env.mustRegister(t, constants.SalesRolePrimary, "p1")
	secondary := env.mustRegister(t, constants.SalesRoleSecondary, "s1")

	if _, err := env.graph.Attach(primary.ID, secondary.ID, nil); err != nil {
		t.Fatalf("first attach failed: %v", err)
	}
	if _, err := env.graph.Attach(primary.ID, secondary.ID, nil); !errors.Is(err, ErrHierarchyLinkExists) {
		t.Fatalf("expected ErrHierarchyLinkExists, got: %v", err)
	}
}

func TestAttachRejectsSecondParent(t *testing.T) {
	env := newHierarchyTestEnv(t)
	primaryA := env.mustRegister(t, constants.SalesRolePrimary, "p-a")
	primaryB := env.mustRegister(t, constants.SalesRolePrimary, "p-b")
	secondary := env.mustRegister(t, constants.SalesRoleSecondary, "s-one-parent")

	if _, err := env.graph.Attach(primaryA.ID, secondary.ID, nil); err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	if _, err := env.graph.Attach(primaryB.ID, secondary.ID, nil); !errors.Is(err, ErrHierarchyLinkExists) {
		t.Fatalf("expected ErrHierarchyLinkExists for second parent, got: %v", err)
	}
}

func TestDetachThenReattachDifferentPrimary(t *testing.T) {
	env := newHierarchyTestEnv(t)
	primaryA := env.mustRegister(t, constants.SalesRolePrimary, "re-p-a")
	primaryB := env.mustRegister(t, constants.SalesRolePrimary, "re-p-b")
	secondary := env.mustRegister(t, constants.SalesRoleSecondary, "re-s")

	if _, err := env.graph.Attach(primaryA.ID, secondary.ID, nil); err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	if err := env.graph.Detach(primaryA.ID, secondary.ID, "admin", "reorganize"); err != nil {
		t.Fatalf("detach failed: %v", err)
	}

	// 历史 removed 行不阻塞新挂靠
	link, err := env.graph.Attach(primaryB.ID, secondary.ID, nil)
	if err != nil {
		t.Fatalf("re-attach to different primary failed: %v", err)
	}
	if link.PrimaryID != primaryB.ID {
		t.Fatalf("expected new parent %d, got %d", primaryB.ID, link.PrimaryID)
	}

	current, err := env.graph.ActiveParentLink(secondary.ID)
	if err != nil {
		t.Fatalf("active parent lookup failed: %v", err)
	}
	if current == nil || current.PrimaryID != primaryB.ID {
		t.Fatalf("unexpected active parent link: %+v", current)
	}
}

func TestDetachMissingLink(t *testing.T) {
	env := newHierarchyTestEnv(t)
	primary := env.mustRegister(t, constants.SalesRolePrimary, "d-p")
	secondary := env.mustRegister(t, constants.SalesRoleSecondary, "d-s")

	if err := env.graph.Detach(primary.ID, secondary.ID, "admin", ""); !errors.Is(err, ErrHierarchyLinkNotFound) {
		t.Fatalf("expected ErrHierarchyLinkNotFound, got: %v", err)
	}
}

func TestAttachOverrideAbovePrimaryBaseRejected(t *testing.T) {
	env := newHierarchyTestEnv(t)
	primary := env.mustRegister(t, constants.SalesRolePrimary, "cap-p")
	secondary := env.mustRegister(t, constants.SalesRoleSecondary, "cap-s")

	// 一级基础比例 0.40，覆盖 0.50 会导致净佣金为负
	override := decimal.NewFromFloat(0.50)
	if _, err := env.graph.Attach(primary.ID, secondary.ID, &override); !errors.Is(err, ErrInvalidCommissionRate) {
		t.Fatalf("expected ErrInvalidCommissionRate, got: %v", err)
	}

	ok := decimal.NewFromFloat(0.25)
	link, err := env.graph.Attach(primary.ID, secondary.ID, &ok)
	if err != nil {
		t.Fatalf("attach with valid override failed: %v", err)
	}
	if link.CommissionRate == nil || !link.CommissionRate.Equal(ok) {
		t.Fatalf("unexpected override rate: %+v", link.CommissionRate)
	}
}

func TestUpdateLinkRate(t *testing.T) {
	env := newHierarchyTestEnv(t)
	primary := env.mustRegister(t, constants.SalesRolePrimary, "u-p")
	secondary := env.mustRegister(t, constants.SalesRoleSecondary, "u-s")

	if _, err := env.graph.Attach(primary.ID, secondary.ID, nil); err != nil {
		t.Fatalf("attach failed: %v", err)
	}

	updated, err := env.graph.UpdateLinkRate(primary.ID, secondary.ID, decimal.NewFromInt(20))
	if err != nil {
		t.Fatalf("update link rate failed: %v", err)
	}
	if updated.CommissionRate == nil || !updated.CommissionRate.Equal(decimal.NewFromFloat(0.20)) {
		t.Fatalf("expected normalized override 0.20, got %+v", updated.CommissionRate)
	}

	if _, err := env.graph.UpdateLinkRate(primary.ID, secondary.ID, decimal.NewFromFloat(0.90)); !errors.Is(err, ErrInvalidCommissionRate) {
		t.Fatalf("expected ErrInvalidCommissionRate above primary base, got: %v", err)
	}
}

func TestResolveRegistrationCode(t *testing.T) {
	env := newHierarchyTestEnv(t)
	primary := env.mustRegister(t, constants.SalesRolePrimary, "reg-p")
	secondary := env.mustRegister(t, constants.SalesRoleSecondary, "reg-s")

	if primary.SecondaryRegistrationCode == nil {
		t.Fatalf("primary account missing registration code")
	}

	got, err := env.graph.ResolveRegistrationCode(*primary.SecondaryRegistrationCode)
	if err != nil {
		t.Fatalf("resolve registration code failed: %v", err)
	}
	if got.ID != primary.ID {
		t.Fatalf("expected primary %d, got %d", primary.ID, got.ID)
	}

	// 历史入网格式：直接使用一级销售的 sales_code
	got, err = env.graph.ResolveRegistrationCode(strings.ToLower(primary.SalesCode))
	if err != nil {
		t.Fatalf("resolve by sales code failed: %v", err)
	}
	if got.ID != primary.ID {
		t.Fatalf("expected primary %d via sales code fallback, got %d", primary.ID, got.ID)
	}

	// 二级销售的 sales_code 不能作为注册码
	if _, err := env.graph.ResolveRegistrationCode(secondary.SalesCode); !errors.Is(err, ErrUnresolvedRegistrationCode) {
		t.Fatalf("expected ErrUnresolvedRegistrationCode, got: %v", err)
	}
	if _, err := env.graph.ResolveRegistrationCode("NOPE1234"); !errors.Is(err, ErrUnresolvedRegistrationCode) {
		t.Fatalf("expected ErrUnresolvedRegistrationCode for unknown code, got: %v", err)
	}
}

func TestResolveRegistrationCodeRejectsRemovedPrimary(t *testing.T) {
	env := newHierarchyTestEnv(t)
	primary := env.mustRegister(t, constants.SalesRolePrimary, "removed-p")

	if _, err := env.registry.UpdateStatus(primary.ID, constants.SalesStatusRemoved); err != nil {
		t.Fatalf("remove primary failed: %v", err)
	}
	if _, err := env.graph.ResolveRegistrationCode(*primary.SecondaryRegistrationCode); !errors.Is(err, ErrUnresolvedRegistrationCode) {
		t.Fatalf("expected ErrUnresolvedRegistrationCode for removed primary, got: %v", err)
	}
}

func TestListChildren(t *testing.T) {
	env := newHierarchyTestEnv(t)
	primary := env.mustRegister(t, constants.SalesRolePrimary, "list-p")
	sa := env.mustRegister(t, constants.SalesRoleSecondary, "list-s-a")
	sb := env.mustRegister(t, constants.SalesRoleSecondary, "list-s-b")

	if _, err := env.graph.Attach(primary.ID, sa.ID, nil); err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	if _, err := env.graph.Attach(primary.ID, sb.ID, nil); err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	if err := env.graph.Detach(primary.ID, sb.ID, "admin", ""); err != nil {
		t.Fatalf("detach failed: %v", err)
	}

	active, err := env.graph.ListChildren(primary.ID, true)
	if err != nil {
		t.Fatalf("list children failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != sa.ID {
		t.Fatalf("unexpected active children: %+v", active)
	}

	all, err := env.graph.ListChildren(primary.ID, false)
	if err != nil {
		t.Fatalf("list all children failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 children including removed, got %d", len(all))
	}
}
