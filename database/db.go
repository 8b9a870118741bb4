package database

import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/ocmsproject/ocms/config"
)

// Declare a package-level variable to hold the singleton instance.
// Ensure the instance is not accessible outside the package.
var instance *Datasource
var once sync.Once

// Datasource holds one connection per store. The intranet store masters
// notices, suspensions, reductions and particulars; the internet store
// serves e-services and captures furnish applications.
type Datasource struct {
	Intranet *sql.DB
	Internet *sql.DB
}

func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	con, err := GetDBConnection(configuration)
	if err != nil {
		return nil, err
	}
	return con, nil
}

// GetDBConnection provides a global access point to the instance and initializes it if it's not already.
func GetDBConnection(configuration *config.Configuration) (*Datasource, error) {
	var err error
	once.Do(func() {
		intranet, errConn := ConnectDB(configuration.IntranetDataSource.Dns)
		if errConn != nil {
			err = errConn
			return
		}
		internet, errConn := ConnectDB(configuration.InternetDataSource.Dns)
		if errConn != nil {
			err = errConn
			return
		}
		if errBoot := bootstrapIntranet(intranet); errBoot != nil {
			err = errBoot
			return
		}
		if errBoot := bootstrapInternet(internet); errBoot != nil {
			err = errBoot
			return
		}
		instance = &Datasource{Intranet: intranet, Internet: internet}
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		log.Printf("database Connection error ❌: %v", err)
		return nil, err
	}
	return db, nil
}

// bootstrapIntranet creates the intranet-side tables used by notice
// processing.
func bootstrapIntranet(db *sql.DB) error {
	if err := createNoticeTable(db); err != nil {
		return err
	}
	if err := createSuspensionTable(db); err != nil {
		return err
	}
	if err := createReductionTable(db); err != nil {
		return err
	}
	if err := createOwnerDriverTable(db); err != nil {
		return err
	}
	if err := createFurnishTable(db); err != nil {
		return err
	}
	if err := createVIPVehicleTable(db); err != nil {
		return err
	}
	return createJobExecutionTable(db)
}

// bootstrapInternet creates the internet-side mirror tables: the notice
// and particulars replicas plus the furnish application capture table.
func bootstrapInternet(db *sql.DB) error {
	if err := createNoticeTable(db); err != nil {
		return err
	}
	if err := createOwnerDriverTable(db); err != nil {
		return err
	}
	return createFurnishTable(db)
}

func GenerateUUIDWithSuffix(module string) string {
	id := uuid.New()
	return fmt.Sprintf("%s_%s", module, id.String())
}

func createNoticeTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ocms_valid_offence_notice (
			id SERIAL PRIMARY KEY,
			notice_no TEXT NOT NULL UNIQUE,
			vehicle_no TEXT NOT NULL,
			rule_code TEXT NOT NULL,
			offence_date TIMESTAMP NOT NULL,
			amount_payable NUMERIC(12,2) NOT NULL DEFAULT 0,
			processing_stage TEXT NOT NULL,
			next_processing_date TIMESTAMP,
			last_processing_date TIMESTAMP,
			suspension_type TEXT NOT NULL DEFAULT '',
			is_sync TEXT NOT NULL DEFAULT 'N',
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_by TEXT,
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	log.Println(err)
	return err
}

func createSuspensionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ocms_suspended_notice (
			id SERIAL PRIMARY KEY,
			notice_no TEXT NOT NULL,
			sr_no INT NOT NULL,
			suspension_type TEXT NOT NULL,
			reason_code TEXT NOT NULL,
			remarks TEXT,
			source_system TEXT,
			suspended_at TIMESTAMP NOT NULL DEFAULT NOW(),
			revival_due_at TIMESTAMP,
			revived_at TIMESTAMP,
			created_by TEXT,
			updated_by TEXT,
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE (notice_no, sr_no)
		)
	`)
	log.Println(err)
	return err
}

func createReductionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ocms_reduced_offence_amount (
			id SERIAL PRIMARY KEY,
			reduction_id TEXT NOT NULL UNIQUE,
			notice_no TEXT NOT NULL,
			sr_no INT NOT NULL,
			receipt_no TEXT NOT NULL UNIQUE,
			reduction_date TIMESTAMP NOT NULL DEFAULT NOW(),
			original_amount NUMERIC(12,2) NOT NULL,
			amount_reduced NUMERIC(12,2) NOT NULL,
			new_amount_payable NUMERIC(12,2) NOT NULL,
			reason TEXT,
			expiry_date TIMESTAMP,
			suspension_source TEXT,
			approved_by TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	log.Println(err)
	return err
}

func createOwnerDriverTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ocms_owner_driver (
			id SERIAL PRIMARY KEY,
			notice_no TEXT NOT NULL,
			owner_driver_indicator TEXT NOT NULL,
			id_type TEXT NOT NULL,
			id_no TEXT NOT NULL,
			name TEXT,
			address_line_1 TEXT,
			address_line_2 TEXT,
			postal_code TEXT,
			current_offender TEXT NOT NULL DEFAULT 'N',
			is_sync TEXT NOT NULL DEFAULT 'N',
			created_by TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE (notice_no, owner_driver_indicator, id_no)
		)
	`)
	log.Println(err)
	return err
}

func createFurnishTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ocms_furnish_application (
			id SERIAL PRIMARY KEY,
			application_id TEXT NOT NULL UNIQUE,
			notice_no TEXT NOT NULL,
			owner_driver_indicator TEXT NOT NULL,
			id_type TEXT NOT NULL,
			id_no TEXT NOT NULL,
			name TEXT,
			address_line_1 TEXT,
			address_line_2 TEXT,
			postal_code TEXT,
			status TEXT NOT NULL,
			reject_reason TEXT,
			notify_email TEXT,
			notify_phone TEXT,
			is_sync TEXT NOT NULL DEFAULT 'N',
			submitted_at TIMESTAMP NOT NULL DEFAULT NOW(),
			processed_at TIMESTAMP,
			processed_by TEXT
		)
	`)
	log.Println(err)
	return err
}

func createVIPVehicleTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ocms_vip_vehicle (
			id SERIAL PRIMARY KEY,
			vehicle_no TEXT NOT NULL UNIQUE,
			remarks TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	log.Println(err)
	return err
}

func createJobExecutionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ocms_job_execution (
			id SERIAL PRIMARY KEY,
			run_id TEXT NOT NULL UNIQUE,
			job_name TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP NOT NULL,
			success BOOLEAN NOT NULL,
			message TEXT,
			success_count INT NOT NULL DEFAULT 0,
			failure_count INT NOT NULL DEFAULT 0
		)
	`)
	log.Println(err)
	return err
}
