// Package postgres is an optional spatialdb.RecordStore adapter backed by
// Postgres, grounded on WPAMesh-mesh-mqtt-server's
// pkg/store/meshcore_nodes.go (postgresMeshCoreNodeStore): the same
// sqlx.DB + named-exec upsert shape, adapted from that store's
// pub_key/node_type/name schema to NodeDbEntry's identity/relation/role/
// location/contact fields.
package postgres

import (
	"database/sql"
	"encoding/hex"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/user/geomesh/model"
)

const selectNodes = `SELECT node_id, relation, role, ipv4_address, ipv4_port, ipv6_address, ipv6_port, latitude, longitude FROM geomesh_nodes`

// row mirrors the table's column shape; NodeId is stored hex-encoded since
// it is an opaque byte string of unspecified length.
type row struct {
	NodeId      string  `db:"node_id"`
	Relation    int     `db:"relation"`
	Role        int     `db:"role"`
	IPv4Address string  `db:"ipv4_address"`
	IPv4Port    uint16  `db:"ipv4_port"`
	IPv6Address string  `db:"ipv6_address"`
	IPv6Port    uint16  `db:"ipv6_port"`
	Latitude    float64 `db:"latitude"`
	Longitude   float64 `db:"longitude"`
}

func (r row) toEntry() (model.NodeDbEntry, error) {
	id, err := hex.DecodeString(r.NodeId)
	if err != nil {
		return model.NodeDbEntry{}, err
	}
	return model.NodeDbEntry{
		Info: model.NodeInfo{
			Profile: model.NodeProfile{
				Id: model.NodeId(id),
				Contact: model.NetworkContact{
					IPv4Address: r.IPv4Address,
					IPv4Port:    r.IPv4Port,
					IPv6Address: r.IPv6Address,
					IPv6Port:    r.IPv6Port,
				},
			},
			Location: model.GpsLocation{Latitude: r.Latitude, Longitude: r.Longitude},
		},
		Relation: model.RelationType(r.Relation),
		Role:     model.RoleType(r.Role),
	}, nil
}

func fromEntry(e model.NodeDbEntry) row {
	return row{
		NodeId:      e.Id().String(),
		Relation:    int(e.Relation),
		Role:        int(e.Role),
		IPv4Address: e.Info.Profile.Contact.IPv4Address,
		IPv4Port:    e.Info.Profile.Contact.IPv4Port,
		IPv6Address: e.Info.Profile.Contact.IPv6Address,
		IPv6Port:    e.Info.Profile.Contact.IPv6Port,
		Latitude:    e.Info.Location.Latitude,
		Longitude:   e.Info.Location.Longitude,
	}
}

// Store is a spatialdb.RecordStore backed by a Postgres table named
// geomesh_nodes. Schema creation is the operator's responsibility (out of
// scope per spec_full.md §1's persistence-backend non-goal).
type Store struct {
	db *sqlx.DB
}

// New wraps an already-connected *sqlx.DB.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open dials a Postgres connection string and wraps it.
func Open(dataSourceName string) (*Store, error) {
	db, err := sqlx.Connect("postgres", dataSourceName)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

func (s *Store) All() ([]model.NodeDbEntry, error) {
	var rows []row
	if err := s.db.Select(&rows, selectNodes+";"); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	entries := make([]model.NodeDbEntry, 0, len(rows))
	for _, r := range rows {
		entry, err := r.toEntry()
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Store) Save(entry model.NodeDbEntry) error {
	stmt := `
	INSERT INTO geomesh_nodes (node_id, relation, role, ipv4_address, ipv4_port, ipv6_address, ipv6_port, latitude, longitude)
	VALUES (:node_id, :relation, :role, :ipv4_address, :ipv4_port, :ipv6_address, :ipv6_port, :latitude, :longitude)
	ON CONFLICT (node_id)
	DO UPDATE SET
		relation = :relation,
		role = :role,
		ipv4_address = :ipv4_address,
		ipv4_port = :ipv4_port,
		ipv6_address = :ipv6_address,
		ipv6_port = :ipv6_port,
		latitude = :latitude,
		longitude = :longitude
	;`
	_, err := s.db.NamedExec(stmt, fromEntry(entry))
	return err
}

func (s *Store) Delete(id model.NodeId) error {
	_, err := s.db.Exec(`DELETE FROM geomesh_nodes WHERE node_id = $1;`, id.String())
	return err
}
