package cluster

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/syllabix/syllabix/core"
	"github.com/syllabix/syllabix/core/regulation"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("cluster not found")
	ErrItemNotFound       = core.NewNotFoundError("item not found")
	ErrRegulationNotFound = core.NewNotFoundError("regulation not found")
	ErrNameExists         = errors.New("a cluster with this name already exists")
	ErrNoCluster          = errors.New("the owning department does not belong to a cluster")

	errDeptNotFound    = "department %s not found"
	errDeptInOther     = "department %s already belongs to another cluster"
	errItemUnavailable = "item %s is not available to this regulation"
)

type (
	Repository interface {
		CreateCluster(ctx context.Context, cl Cluster, exec ...core.DBExecutor) (Cluster, error)
		// QueryClusters does a case-insensitive match of QueryFilter.Search on Cluster.Name.
		QueryClusters(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Cluster, error)
		GetCluster(ctx context.Context, id string, exec ...core.DBExecutor) (Cluster, error)
		UpdateCluster(ctx context.Context, cl Cluster, exec ...core.DBExecutor) (Cluster, error)
		DeleteCluster(ctx context.Context, id string, exec ...core.DBExecutor) error

		// DepartmentClusters maps each existing department of ids to its cluster ID ("" when none).
		DepartmentClusters(ctx context.Context, ids []string, exec ...core.DBExecutor) (map[string]string, error)
		// SetDepartmentsCluster attaches departments to a cluster; clusterID "" detaches them.
		SetDepartmentsCluster(ctx context.Context, ids []string, clusterID string, exec ...core.DBExecutor) error
		// ResetDepartmentVisibility sets every CLUSTER item owned by the department back to UNIQUE.
		ResetDepartmentVisibility(ctx context.Context, departmentID string, exec ...core.DBExecutor) error

		// RegulationDepartment returns the department and status of a regulation.
		RegulationDepartment(ctx context.Context, regulationID string, exec ...core.DBExecutor) (deptID, status string, err error)
		GetItem(ctx context.Context, kind, id string, exec ...core.DBExecutor) (Item, error)
		SetItemVisibility(ctx context.Context, kind, id, visibility string, exec ...core.DBExecutor) error
		// QueryClusterItems lists the CLUSTER items of a kind owned by the given departments.
		QueryClusterItems(ctx context.Context, kind string, departmentIDs []string, exec ...core.DBExecutor) ([]Item, error)

		CreateAdoption(ctx context.Context, adoption Adoption, exec ...core.DBExecutor) (Adoption, error)
		// QueryAdoptions lists the adoptions of a regulation; kind filters when not empty.
		QueryAdoptions(ctx context.Context, regulationID, kind string, exec ...core.DBExecutor) ([]Adoption, error)
		// DeleteAdoptions drops the adoptions of a regulation of the given kind; nil itemIDs drops all of them.
		DeleteAdoptions(ctx context.Context, regulationID, kind string, itemIDs []string, exec ...core.DBExecutor) error
		DeleteItemAdoptions(ctx context.Context, kind, itemID string, exec ...core.DBExecutor) error
		// DeleteDepartmentAdoptions drops the adoptions where the department is the source or the target.
		DeleteDepartmentAdoptions(ctx context.Context, departmentID string, exec ...core.DBExecutor) error
	}

	// Observer is notified of completed sharing operations.
	Observer interface {
		SharingChanged(operation, kind, mode string)
	}

	Service struct {
		db       core.DB
		repo     Repository
		observer Observer
	}
)

type nopObserver struct{}

func (nopObserver) SharingChanged(string, string, string) {}

func NewService(db core.DB, repo Repository, observer Observer) *Service {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Service{db: db, repo: repo, observer: observer}
}

func (svc *Service) Create(ctx context.Context, nc NewCluster) (Cluster, error) {
	var cl Cluster
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		now := core.Now()
		var err error
		cl, err = svc.repo.CreateCluster(ctx, Cluster{
			Name:        nc.Name,
			Description: nc.Description,
			CreatedAt:   now,
			UpdatedAt:   now,
		}, tx)
		if err != nil {
			return core.ConflictAsFieldError(err, "name", ErrNameExists.Error())
		}
		if err = svc.attach(ctx, tx, cl, nc.DepartmentIDs); err != nil {
			return err
		}
		cl, err = svc.repo.GetCluster(ctx, cl.ID, tx)
		return err
	})
	if err != nil {
		return Cluster{}, err
	}
	svc.observer.SharingChanged("membership", "", ModeAdd)
	return cl, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Cluster, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryClusters(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Cluster, error) {
	if id == "" {
		return Cluster{}, ErrNotFound
	}
	return svc.repo.GetCluster(ctx, id)
}

func (svc *Service) Update(ctx context.Context, cl Cluster, uc UpdateCluster) (Cluster, error) {
	cl.Name = uc.Name
	if uc.Description != nil {
		cl.Description = *uc.Description
	}
	cl.UpdatedAt = core.Now()
	cl, err := svc.repo.UpdateCluster(ctx, cl)
	return cl, core.ConflictAsFieldError(err, "name", ErrNameExists.Error())
}

// Delete detaches every member of the cluster, as ChangeMembership's remove does, then deletes it.
func (svc *Service) Delete(ctx context.Context, id string) error {
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		cl, err := svc.repo.GetCluster(ctx, id, tx)
		if err != nil {
			return err
		}
		if err = svc.detach(ctx, tx, cl.DepartmentIDs); err != nil {
			return err
		}
		return svc.repo.DeleteCluster(ctx, id, tx)
	})
	if err != nil {
		return err
	}
	svc.observer.SharingChanged("membership", "", ModeRemove)
	return nil
}

// ChangeMembership adds, removes or replaces the departments of a cluster.
// Removed departments lose every adoption they are part of and their CLUSTER items become UNIQUE.
func (svc *Service) ChangeMembership(ctx context.Context, clusterID string, mc MembershipChange) (Cluster, error) {
	var cl Cluster
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		if cl, err = svc.repo.GetCluster(ctx, clusterID, tx); err != nil {
			return err
		}

		members := toSet(cl.DepartmentIDs)
		var toAdd, toRemove []string
		switch mc.Mode {
		case ModeAdd:
			toAdd = mc.DepartmentIDs
		case ModeRemove:
			for _, id := range mc.DepartmentIDs {
				if members[id] {
					toRemove = append(toRemove, id)
				}
			}
		case ModeReplace:
			wanted := toSet(mc.DepartmentIDs)
			for _, id := range cl.DepartmentIDs {
				if !wanted[id] {
					toRemove = append(toRemove, id)
				}
			}
			for _, id := range mc.DepartmentIDs {
				if !members[id] {
					toAdd = append(toAdd, id)
				}
			}
		default:
			return core.NewValidationError(nil, core.FieldError{Field: "mode", Error: modeText})
		}

		if err = svc.detach(ctx, tx, toRemove); err != nil {
			return err
		}
		if err = svc.attach(ctx, tx, cl, toAdd); err != nil {
			return err
		}
		cl, err = svc.repo.GetCluster(ctx, clusterID, tx)
		return err
	})
	if err != nil {
		return Cluster{}, err
	}
	svc.observer.SharingChanged("membership", "", mc.Mode)
	return cl, nil
}

// attach adds departments to cl; members of cl are ignored, members of another cluster are rejected.
func (svc *Service) attach(ctx context.Context, tx core.DBExecutor, cl Cluster, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	clusters, err := svc.repo.DepartmentClusters(ctx, ids, tx)
	if err != nil {
		return errors.Wrap(err, "getting department clusters")
	}

	toAdd := make([]string, 0, len(ids))
	for _, id := range ids {
		clusterID, ok := clusters[id]
		switch {
		case !ok:
			return core.NewValidationError(nil, core.FieldError{Field: "department_ids", Error: fmt.Sprintf(errDeptNotFound, id)})
		case clusterID == cl.ID:
			continue
		case clusterID != "":
			return core.NewValidationError(nil, core.FieldError{Field: "department_ids", Error: fmt.Sprintf(errDeptInOther, id)})
		}
		toAdd = append(toAdd, id)
	}
	if len(toAdd) == 0 {
		return nil
	}
	return errors.Wrap(svc.repo.SetDepartmentsCluster(ctx, toAdd, cl.ID, tx), "attaching departments")
}

// detach removes departments from their cluster, revoking their adoptions and sharing.
func (svc *Service) detach(ctx context.Context, tx core.DBExecutor, ids []string) error {
	for _, id := range ids {
		if err := svc.repo.DeleteDepartmentAdoptions(ctx, id, tx); err != nil {
			return errors.Wrap(err, "revoking department adoptions")
		}
		if err := svc.repo.ResetDepartmentVisibility(ctx, id, tx); err != nil {
			return errors.Wrap(err, "resetting department visibility")
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return errors.Wrap(svc.repo.SetDepartmentsCluster(ctx, ids, "", tx), "detaching departments")
}

// SetVisibility changes the visibility of an item. CLUSTER requires the owner to be in a cluster;
// going back to UNIQUE revokes every adoption of the item.
func (svc *Service) SetVisibility(ctx context.Context, kind, itemID string, vc VisibilityChange) (Item, error) {
	var item Item
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		if item, err = svc.repo.GetItem(ctx, kind, itemID, tx); err != nil {
			return err
		}
		if item.RegulationStatus == regulation.StatusArchived {
			return core.NewValidationError(core.ErrRegulationArchived)
		}
		if item.Visibility == vc.Visibility {
			return nil
		}

		switch vc.Visibility {
		case core.VisibilityCluster:
			clusters, err := svc.repo.DepartmentClusters(ctx, []string{item.DepartmentID}, tx)
			if err != nil {
				return errors.Wrap(err, "getting department cluster")
			}
			if clusters[item.DepartmentID] == "" {
				return core.NewValidationError(ErrNoCluster, core.FieldError{Field: "visibility", Error: ErrNoCluster.Error()})
			}
		case core.VisibilityUnique:
			if err = svc.repo.DeleteItemAdoptions(ctx, kind, itemID, tx); err != nil {
				return errors.Wrap(err, "revoking item adoptions")
			}
		}

		if err = svc.repo.SetItemVisibility(ctx, kind, itemID, vc.Visibility, tx); err != nil {
			return errors.Wrap(err, "setting item visibility")
		}
		item.Visibility = vc.Visibility
		return nil
	})
	if err != nil {
		return Item{}, err
	}
	svc.observer.SharingChanged("visibility", kind, vc.Visibility)
	return item, nil
}

// peers returns the department of a regulation with the other members of its cluster.
func (svc *Service) peers(ctx context.Context, regulationID string, exec ...core.DBExecutor) (deptID, status string, others []string, err error) {
	deptID, status, err = svc.repo.RegulationDepartment(ctx, regulationID, exec...)
	if err != nil {
		return "", "", nil, err
	}
	clusters, err := svc.repo.DepartmentClusters(ctx, []string{deptID}, exec...)
	if err != nil {
		return "", "", nil, errors.Wrap(err, "getting department cluster")
	}
	clusterID := clusters[deptID]
	if clusterID == "" {
		return deptID, status, nil, nil
	}
	cl, err := svc.repo.GetCluster(ctx, clusterID, exec...)
	if err != nil {
		return "", "", nil, errors.Wrap(err, "getting cluster")
	}
	for _, id := range cl.DepartmentIDs {
		if id != deptID {
			others = append(others, id)
		}
	}
	return deptID, status, others, nil
}

// Available lists the CLUSTER items of a kind the regulation may adopt, flagging the adopted ones.
func (svc *Service) Available(ctx context.Context, regulationID, kind string) ([]AvailableItem, error) {
	_, _, others, err := svc.peers(ctx, regulationID)
	if err != nil {
		return nil, err
	}
	avail := make([]AvailableItem, 0)
	if len(others) == 0 {
		return avail, nil
	}

	items, err := svc.repo.QueryClusterItems(ctx, kind, others)
	if err != nil {
		return nil, errors.Wrap(err, "querying cluster items")
	}
	adoptions, err := svc.repo.QueryAdoptions(ctx, regulationID, kind)
	if err != nil {
		return nil, errors.Wrap(err, "querying adoptions")
	}
	adopted := make(map[string]bool, len(adoptions))
	for _, a := range adoptions {
		adopted[a.ItemID] = true
	}
	for _, item := range items {
		avail = append(avail, AvailableItem{Item: item, Adopted: adopted[item.ID]})
	}
	return avail, nil
}

// ChangeAdoptions adds, removes or replaces the adopted items of a kind in one transaction.
// Any item not available to the regulation aborts the whole change.
func (svc *Service) ChangeAdoptions(ctx context.Context, regulationID string, ac AdoptionChange) ([]AdoptedItem, error) {
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		deptID, status, others, err := svc.peers(ctx, regulationID, tx)
		if err != nil {
			return err
		}
		if status == regulation.StatusArchived {
			return core.NewValidationError(core.ErrRegulationArchived)
		}

		switch ac.Mode {
		case ModeRemove:
			if len(ac.ItemIDs) == 0 {
				return nil
			}
			return svc.repo.DeleteAdoptions(ctx, regulationID, ac.Kind, ac.ItemIDs, tx)
		case ModeReplace:
			if err = svc.repo.DeleteAdoptions(ctx, regulationID, ac.Kind, nil, tx); err != nil {
				return errors.Wrap(err, "dropping adoptions")
			}
		case ModeAdd:
		default:
			return core.NewValidationError(nil, core.FieldError{Field: "mode", Error: modeText})
		}
		return svc.adopt(ctx, tx, regulationID, deptID, toSet(others), ac)
	})
	if err != nil {
		return nil, err
	}
	svc.observer.SharingChanged("adoption", ac.Kind, ac.Mode)
	return svc.Adopted(ctx, regulationID, ac.Kind)
}

func (svc *Service) adopt(ctx context.Context, tx core.DBExecutor, regulationID, deptID string, peers map[string]bool, ac AdoptionChange) error {
	existing, err := svc.repo.QueryAdoptions(ctx, regulationID, ac.Kind, tx)
	if err != nil {
		return errors.Wrap(err, "querying adoptions")
	}
	adopted := make(map[string]bool, len(existing))
	for _, a := range existing {
		adopted[a.ItemID] = true
	}

	unavailable := func(id string) error {
		return core.NewValidationError(nil, core.FieldError{Field: "item_ids", Error: fmt.Sprintf(errItemUnavailable, id)})
	}
	for _, id := range ac.ItemIDs {
		if adopted[id] {
			continue
		}
		item, err := svc.repo.GetItem(ctx, ac.Kind, id, tx)
		if err != nil {
			if core.IsNotFound(err) {
				return unavailable(id)
			}
			return errors.Wrap(err, "getting item")
		}
		if item.Visibility != core.VisibilityCluster || item.DepartmentID == deptID || !peers[item.DepartmentID] {
			return unavailable(id)
		}
		if _, err = svc.repo.CreateAdoption(ctx, Adoption{
			Kind:               ac.Kind,
			ItemID:             id,
			SourceDepartmentID: item.DepartmentID,
			RegulationID:       regulationID,
			CreatedAt:          core.Now(),
		}, tx); err != nil {
			return errors.Wrap(err, "creating adoption")
		}
		adopted[id] = true
	}
	return nil
}

// Adopted lists the items adopted by a regulation; kind filters when not empty.
func (svc *Service) Adopted(ctx context.Context, regulationID, kind string) ([]AdoptedItem, error) {
	if _, _, err := svc.repo.RegulationDepartment(ctx, regulationID); err != nil {
		return nil, err
	}
	adoptions, err := svc.repo.QueryAdoptions(ctx, regulationID, kind)
	if err != nil {
		return nil, errors.Wrap(err, "querying adoptions")
	}
	items := make([]AdoptedItem, 0, len(adoptions))
	for _, a := range adoptions {
		item, err := svc.repo.GetItem(ctx, a.Kind, a.ItemID)
		if err != nil {
			if core.IsNotFound(err) {
				continue
			}
			return nil, errors.Wrap(err, "getting adopted item")
		}
		items = append(items, AdoptedItem{Item: item, AdoptionID: a.ID, AdoptedAt: a.CreatedAt})
	}
	return items, nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
